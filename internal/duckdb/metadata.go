package duckdb

import (
	"database/sql/driver"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Name    string // Role of the file, e.g. "ensembl_gtf"
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(name, path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Name:    name,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func formatModTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// RecordSources replaces the recorded source files of the cache.
func (s *Store) RecordSources(fps []FileFingerprint) error {
	return s.replaceRows("sources", len(fps), func(i int) []driver.Value {
		fp := fps[i]
		return []driver.Value{fp.Name, fp.Path, fp.Size, formatModTime(fp.ModTime)}
	})
}

// Sources returns the recorded source files keyed by name.
func (s *Store) Sources() (map[string]FileFingerprint, error) {
	rows, err := s.db.Query(`SELECT name, path, size, mod_time FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string]FileFingerprint)
	for rows.Next() {
		var fp FileFingerprint
		var modTime string
		if err := rows.Scan(&fp.Name, &fp.Path, &fp.Size, &modTime); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		fp.ModTime, err = time.Parse(time.RFC3339Nano, modTime)
		if err != nil {
			return nil, fmt.Errorf("parse source %s mod time: %w", fp.Name, err)
		}
		sources[fp.Name] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// SourcesMatch reports whether the cache was built from exactly the given
// files, compared by name, size and modification time.
func (s *Store) SourcesMatch(fps []FileFingerprint) bool {
	recorded, err := s.Sources()
	if err != nil || len(recorded) != len(fps) || len(fps) == 0 {
		return false
	}

	for _, fp := range fps {
		r, ok := recorded[fp.Name]
		if !ok || r.Size != fp.Size || formatModTime(r.ModTime) != formatModTime(fp.ModTime) {
			return false
		}
	}
	return true
}
