package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"time"

	"github.com/theimaginaryfoundation/repack-o-bot/repack/fileutils"
)

// File is one entry destined for the output archive. Path uses forward
// slashes and is relative to the archive root.
type File struct {
	Path string
	Data []byte
	Mode fs.FileMode
}

// Entries carry a fixed modification time so identical inputs produce
// byte-identical archives.
var entryModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

const maxEntryBytes = int64(100 * 1024 * 1024)

// Write renders files into w as a deflate-compressed zip. Entries are
// sorted by path; empty and duplicate paths are rejected.
func Write(w io.Writer, files []File) error {
	if w == nil {
		return errors.New("Write: w is nil")
	}

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	zw := zip.NewWriter(w)
	seen := make(map[string]struct{}, len(sorted))
	for _, f := range sorted {
		if f.Path == "" {
			return errors.New("Write: entry path is empty")
		}
		if _, dup := seen[f.Path]; dup {
			return fmt.Errorf("Write: duplicate entry path: %s", f.Path)
		}
		seen[f.Path] = struct{}{}

		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: entryModTime,
		}
		hdr.SetMode(mode)

		ew, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("Write: create entry %s: %w", f.Path, err)
		}
		if _, err := ew.Write(f.Data); err != nil {
			return fmt.Errorf("Write: write entry %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("Write: close archive: %w", err)
	}
	return nil
}

// WriteFile renders the archive in memory and writes it to path atomically,
// replacing any previous archive at that path.
func WriteFile(path string, files []File) error {
	if path == "" {
		return errors.New("WriteFile: path is empty")
	}
	var buf bytes.Buffer
	if err := Write(&buf, files); err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomicSameDir(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("WriteFile: write %s: %w", path, err)
	}
	return nil
}

// ReadFile returns entry name to contents for an existing archive. Intended
// for verification and tests; entries beyond the size cap are rejected.
func ReadFile(path string) (map[string][]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: open zip: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	out := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("ReadFile: open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("ReadFile: read entry %s: %w", f.Name, err)
		}
		if int64(len(data)) > maxEntryBytes {
			return nil, fmt.Errorf("ReadFile: entry too large: %s", f.Name)
		}
		out[f.Name] = data
	}
	return out, nil
}
