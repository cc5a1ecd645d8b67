package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GENCODE FTP URLs
const (
	gencodeBaseURL = "https://ftp.ebi.ac.uk/pub/databases/gencode/Gencode_human/release_46"
	gencodeVersion = "v46"
)

// NCBI RefSeq annotation releases, the HGNC complete set and NCBI gene_info
const (
	refSeqBaseURL   = "https://ftp.ncbi.nlm.nih.gov/genomes/all/GCF/000/001/405"
	refSeqGRCh38    = "GCF_000001405.40_GRCh38.p14"
	refSeqGRCh37    = "GCF_000001405.25_GRCh37.p13"
	hgncCompleteURL = "https://storage.googleapis.com/public-download-files/hgnc/tsv/tsv/hgnc_complete_set.txt"
	geneInfoURL     = "https://ftp.ncbi.nlm.nih.gov/gene/DATA/GENE_INFO/Mammalia/Homo_sapiens.gene_info.gz"
)

// sourceSet holds one location per combine input, either download URLs or
// local paths.
type sourceSet struct {
	Ensembl  string
	RefSeq   string
	HGNC     string
	GeneInfo string
}

func (s sourceSet) all() []string {
	return []string{s.Ensembl, s.RefSeq, s.HGNC, s.GeneInfo}
}

// getSourceURLs returns the GENCODE GTF, RefSeq GTF, HGNC and gene_info URLs
// for the given assembly. Unknown assemblies fall back to GRCh38.
func getSourceURLs(assembly string) sourceSet {
	urls := sourceSet{HGNC: hgncCompleteURL, GeneInfo: geneInfoURL}
	switch strings.ToUpper(assembly) {
	case "GRCH37":
		urls.Ensembl = fmt.Sprintf("%s/GRCh37_mapping/gencode.%slift37.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
		urls.RefSeq = fmt.Sprintf("%s/%s/%s_genomic.gtf.gz", refSeqBaseURL, refSeqGRCh37, refSeqGRCh37)
	default:
		urls.Ensembl = fmt.Sprintf("%s/gencode.%s.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
		urls.RefSeq = fmt.Sprintf("%s/%s/%s_genomic.gtf.gz", refSeqBaseURL, refSeqGRCh38, refSeqGRCh38)
	}
	return urls
}

func newDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download GENCODE, RefSeq, HGNC and NCBI gene_info source files",
		Long: `Download the GENCODE and RefSeq GTF annotations, the HGNC complete set and
the human NCBI gene_info file that "genecache combine" merges. Existing files
are kept.`,
		Example: `  genecache download
  genecache download --assembly GRCh37
  genecache download --output /data/genecache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assembly := viper.GetString("assembly")
			if outputDir == "" {
				outputDir = DefaultDataDir(assembly)
				if outputDir == "" {
					return fmt.Errorf("cannot determine home directory")
				}
			}
			return runDownload(cmd.Context(), assembly, outputDir, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: ~/.genecache/<assembly>)")

	return cmd
}

func runDownload(ctx context.Context, assembly, destDir string, out io.Writer) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", destDir, err)
	}

	urls := getSourceURLs(assembly)

	fmt.Fprintf(out, "Downloading %s sources...\n", assembly)
	fmt.Fprintf(out, "Destination: %s\n\n", destDir)

	for _, url := range urls.all() {
		if err := downloadFile(ctx, url, filepath.Join(destDir, filepath.Base(url)), out); err != nil {
			return fmt.Errorf("download %s: %w", filepath.Base(url), err)
		}
	}

	fmt.Fprintf(out, "\nDownload complete!\n")
	fmt.Fprintf(out, "To build the cache, run:\n")
	fmt.Fprintf(out, "  genecache combine --assembly %s\n", assembly)

	return nil
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(ctx context.Context, url, destPath string, out io.Writer) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Fprintf(out, "  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 30 * time.Minute, // Long timeout for large files
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{
		out:       out,
		total:     resp.ContentLength,
		lastPrint: time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Fprintf(out, "    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// findSourceFiles looks for downloaded source files in dir. Missing files
// are returned as empty paths.
func findSourceFiles(dir, assembly string) sourceSet {
	urls := getSourceURLs(assembly)
	find := func(url string) string {
		p := filepath.Join(dir, filepath.Base(url))
		if _, err := os.Stat(p); err != nil {
			return ""
		}
		return p
	}
	return sourceSet{
		Ensembl:  find(urls.Ensembl),
		RefSeq:   find(urls.RefSeq),
		HGNC:     find(urls.HGNC),
		GeneInfo: find(urls.GeneInfo),
	}
}
