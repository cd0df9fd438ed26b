package repack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/repack-o-bot/repack/archive"
)

// ArchiveWriter packages an assembled file tree into a single archive on
// disk. The default produces a deterministic zip; tests substitute captures.
type ArchiveWriter interface {
	WriteArchive(path string, files []archive.File) error
}

// ZipArchiveWriter is the default ArchiveWriter.
type ZipArchiveWriter struct{}

func (ZipArchiveWriter) WriteArchive(path string, files []archive.File) error {
	return archive.WriteFile(path, files)
}

// BuildTree lays out the export archive in memory: users.json,
// channels.json and one search_results/<date>.json per bucket. It returns
// the entries plus the per-date message counts used for reconciliation.
func BuildTree(users []User, ch Channel, part Partition, compact bool) ([]archive.File, map[string]int, error) {
	if users == nil {
		users = []User{}
	}

	usersData, err := marshalArtifact(users, compact)
	if err != nil {
		return nil, nil, fmt.Errorf("BuildTree: marshal users: %w", err)
	}
	channelsData, err := marshalArtifact([]Channel{ch}, compact)
	if err != nil {
		return nil, nil, fmt.Errorf("BuildTree: marshal channels: %w", err)
	}

	files := []archive.File{
		{Path: "users.json", Data: usersData, Mode: 0o644},
		{Path: "channels.json", Data: channelsData, Mode: 0o644},
	}

	counts := make(map[string]int, len(part.Buckets))
	for _, date := range part.Dates() {
		msgs := part.Buckets[date]
		data, err := marshalArtifact(msgs, compact)
		if err != nil {
			return nil, nil, fmt.Errorf("BuildTree: marshal bucket %s: %w", date, err)
		}
		files = append(files, archive.File{
			Path: ch.Name + "/" + date + ".json",
			Data: data,
			Mode: 0o644,
		})
		counts[date] = len(msgs)
	}
	return files, counts, nil
}

// marshalArtifact renders output JSON the way the export layout expects:
// four-space indentation unless compact output was requested. HTML escaping
// is off so Slack's <@user> and <url> markup passes through unmangled.
func marshalArtifact(v any, compact bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EmitArchive assembles the tree and hands it to w.
func EmitArchive(w ArchiveWriter, path string, users []User, ch Channel, part Partition, compact bool) (map[string]int, error) {
	if w == nil {
		w = ZipArchiveWriter{}
	}
	if path == "" {
		return nil, errors.New("EmitArchive: path is empty")
	}
	files, counts, err := BuildTree(users, ch, part, compact)
	if err != nil {
		return nil, err
	}
	if err := w.WriteArchive(path, files); err != nil {
		return nil, fmt.Errorf("EmitArchive: write archive: %w", err)
	}
	return counts, nil
}
