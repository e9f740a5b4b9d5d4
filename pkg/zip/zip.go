package zip

import (
	"archive/zip"
	"bytes"
)

// Entry is one file inside a bundle archive.
type Entry struct {
	Name string
	Data []byte
}

// Archive packs the entries into an in-memory zip. Entries without a name are
// skipped; a write failure yields nil so callers can treat the archive as a
// unit.
func Archive(entries []Entry) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		w, err := zw.Create(entry.Name)
		if err != nil {
			continue
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}
