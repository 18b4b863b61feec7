package domain

import "time"

// SourceFile is one ingested PDF from the drop directory. The filename is the
// sole deduplication key: a file is considered ingested as soon as its row
// exists, and removing the PDF from disk removes the row and everything that
// hangs off it.
type SourceFile struct {
	ID        int64
	Filename  string
	CreatedAt time.Time
}
