package export

import (
	"bytes"
	"io"

	"sleeperrecap/internal/fileutil"
)

// Save renders into memory and writes path atomically so a failed render
// never leaves a partial file behind.
func Save(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}
