package batch

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

const (
	ManifestName      = "ipfs_paths.txt"
	manifestSeparator = "---------"
	timestampLayout   = "2006-01-02 15:04:05.000000"
)

// WriteManifest writes the identifiers of one run to path, one per line,
// after a separator and a timestamp line.
func WriteManifest(fs afero.Fs, path string, ids []string, at time.Time) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n%s\n", manifestSeparator)
	fmt.Fprintf(&buf, "Timestamp: %s\n", at.Format(timestampLayout))
	for _, id := range ids {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
