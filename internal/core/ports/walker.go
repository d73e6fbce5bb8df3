package ports

import "iter"

// Walker enumerates candidate files.
type Walker interface {
	// WalkFiles yields the absolute path of every regular file under root,
	// skipping entries whose name matches one of the ignore patterns.
	// A walk error is yielded once and ends the sequence.
	WalkFiles(root string, ignores []string) iter.Seq2[string, error]
}
