package repack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileSource lists and reads candidate input files. The default
// implementation is OS-backed; tests substitute in-memory sources.
type FileSource interface {
	// ListJSON returns the names (not paths) of entries in dir whose name
	// ends in ".json", in a stable order.
	ListJSON(dir string) ([]string, error)
	// ReadFile returns the contents of one input file.
	ReadFile(path string) ([]byte, error)
}

// OSFileSource reads the real filesystem. Matching is by name only, so a
// directory named like an input file is listed too and fails at read time
// like any other unreadable entry.
type OSFileSource struct{}

func (OSFileSource) ListJSON(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (OSFileSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

var errNotArray = errors.New("top-level JSON value is not an array")

// FileResult is the per-file loading outcome. A failed file keeps Count 0
// and carries the reason in Err.
type FileResult struct {
	Name  string
	Count int
	Err   error
}

// LoadResult is the accepted message stream plus the per-file ledger the
// reconciliation report is built from.
type LoadResult struct {
	// Messages holds every accepted record across all files, in file order
	// and element order within each file.
	Messages []Message
	// Files has one entry per listed input file, failed ones included.
	Files []FileResult
}

// TotalAccepted sums the per-file accepted counts.
func (r LoadResult) TotalAccepted() int {
	total := 0
	for _, f := range r.Files {
		total += f.Count
	}
	return total
}

// LoadDirectory reads every *.json entry in dir and collects the records
// that qualify as messages: JSON objects whose type field is the string
// "message". A file that cannot be read or parsed is recorded at count
// zero and warned about; it never aborts the run.
func LoadDirectory(ctx context.Context, src FileSource, dir string, logger *zap.Logger) (LoadResult, error) {
	if ctx == nil {
		return LoadResult{}, errors.New("LoadDirectory: ctx is nil")
	}
	if dir == "" {
		return LoadResult{}, errors.New("LoadDirectory: dir is empty")
	}
	if src == nil {
		src = OSFileSource{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names, err := src.ListJSON(dir)
	if err != nil {
		return LoadResult{}, fmt.Errorf("LoadDirectory: list input dir: %w", err)
	}

	var res LoadResult
	for _, name := range names {
		select {
		case <-ctx.Done():
			return LoadResult{}, ctx.Err()
		default:
		}

		records, err := loadRecordFile(src, filepath.Join(dir, name))
		if err != nil {
			res.Files = append(res.Files, FileResult{Name: name, Err: err})
			if errors.Is(err, errNotArray) {
				logger.Warn("input file is not a message array", zap.String("file", name))
			} else {
				logger.Warn("failed to load input file", zap.String("file", name), zap.Error(err))
			}
			continue
		}

		count := 0
		for _, raw := range records {
			msg, ok := acceptRecord(raw)
			if !ok {
				continue
			}
			res.Messages = append(res.Messages, msg)
			count++
		}
		res.Files = append(res.Files, FileResult{Name: name, Count: count})
		logger.Debug("loaded input file", zap.String("file", name), zap.Int("messages", count))
	}
	return res, nil
}

// loadRecordFile reads one input file and splits its top-level array into
// raw elements, leaving each element's bytes untouched.
func loadRecordFile(src FileSource, path string) ([]json.RawMessage, error) {
	data, err := src.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] != '[' {
		return nil, errNotArray
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
