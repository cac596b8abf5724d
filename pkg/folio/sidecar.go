package folio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Sidecar holds hand- or machine-written details for a photo. Sidecars live next to the
// derivatives so the source tree is never written to.
type Sidecar struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ReadSidecar reads a sidecar file. A missing file returns an error matching fs.ErrNotExist.
func ReadSidecar(path string) (*Sidecar, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Sidecar{}
	if err := json.Unmarshal(bs, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// WriteSidecar replaces a sidecar file atomically.
func WriteSidecar(path string, s *Sidecar) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
}
