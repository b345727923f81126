package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"rentaltax/internal/ports"
)

// Bundle packs entries into a ZIP archive in the given order. Entry names
// must be unique.
func (r *Renderer) Bundle(ctx context.Context, entries []ports.BundleEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("bundle needs at least one entry")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := r.now()
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[e.FileName]; dup {
			return nil, fmt.Errorf("duplicate bundle entry %q", e.FileName)
		}
		seen[e.FileName] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.FileName,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create zip entry %q: %w", e.FileName, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %q: %w", e.FileName, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("create zip: %w", err)
	}
	return buf.Bytes(), nil
}
