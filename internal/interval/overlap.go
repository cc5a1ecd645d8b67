// Package interval provides static, binary-searchable overlap indexes over
// closed genomic intervals, and per-chromosome forests of them.
package interval

// Overlaps reports whether the closed intervals [s1, e1] and [s2, e2] share
// at least one position.
func Overlaps(s1, e1, s2, e2 int64) bool {
	return s1 <= e2 && s2 <= e1
}
