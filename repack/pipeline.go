package repack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/repack-o-bot/repack/fileutils"
)

// DefaultArchiveName is the archive filename used when no explicit target
// is given; it lands inside the input directory.
const DefaultArchiveName = "slack_export.zip"

// The report always lands in the input directory.
const reportFileName = "report.txt"

// ErrNoValidMessages aborts a run whose inputs contained no accepted
// messages. Nothing is written in that case.
var ErrNoValidMessages = errors.New("no valid messages found in the JSON files")

// Options controls one repackaging run. The zero value of every field is a
// usable default apart from InputDir, which is required.
type Options struct {
	// InputDir is the directory holding the loose *.json message files.
	InputDir string

	// OutputPath is the archive target. Empty means
	// <InputDir>/slack_export.zip. An existing archive is replaced.
	OutputPath string

	// Compact disables the four-space indentation of output JSON.
	Compact bool

	// FileMode is applied to the report file (defaults to 0o644).
	FileMode fs.FileMode

	// Logger receives progress and warning events. nil disables logging.
	Logger *zap.Logger

	// Source, Archiver and Reports are the injected I/O capabilities; nil
	// selects the OS-backed defaults.
	Source   FileSource
	Archiver ArchiveWriter
	Reports  TextFileWriter

	// Now supplies the report generation time (defaults to time.Now).
	Now func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	ArchivePath string
	ReportPath  string

	FilesProcessed  int
	InputMessages   int
	OutputMessages  int
	SkippedMessages int

	UsersWritten int
	DatesWritten int

	// TeamID is the dominant team id inferred from the inputs.
	TeamID string
}

// CountsMatch reports whether every accepted message made it into a bucket.
func (r Result) CountsMatch() bool {
	return r.InputMessages == r.OutputMessages
}

// Run executes the whole pipeline: load the input files, build the user
// directory, partition by date, synthesize the channel, emit the archive,
// then write the reconciliation report next to the inputs. Per-file and
// per-message problems surface as warnings and count differences; the only
// fatal input condition is an entirely empty accepted set.
func Run(ctx context.Context, opts Options) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("Run: ctx is nil")
	}
	if opts.InputDir == "" {
		return Result{}, errors.New("Run: InputDir is empty")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := opts.Source
	if src == nil {
		src = OSFileSource{}
	}
	archiver := opts.Archiver
	if archiver == nil {
		archiver = ZipArchiveWriter{}
	}
	reports := opts.Reports
	if reports == nil {
		reports = AtomicTextWriter{Mode: opts.FileMode}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	outPath := opts.OutputPath
	if outPath == "" {
		outPath = filepath.Join(opts.InputDir, DefaultArchiveName)
	}

	load, err := LoadDirectory(ctx, src, opts.InputDir, logger)
	if err != nil {
		return Result{}, fmt.Errorf("Run: load input: %w", err)
	}
	if len(load.Messages) == 0 {
		return Result{}, ErrNoValidMessages
	}

	dir := BuildDirectory(load.Messages)
	part := PartitionByDate(load.Messages, logger)
	syn := Synthesize(dir, part.MinTS)
	logger.Info("synthesized channel",
		zap.String("channel", syn.Channel.ID),
		zap.String("team", syn.TeamID),
		zap.Int("users", len(syn.Channel.Members)),
		zap.Int("dates", len(part.Buckets)))

	if fileutils.FileExists(outPath) {
		logger.Debug("replacing existing archive", zap.String("path", outPath))
	}
	users := dir.UsersInOrder()
	counts, err := EmitArchive(archiver, outPath, users, syn.Channel, part, opts.Compact)
	if err != nil {
		return Result{}, fmt.Errorf("Run: emit archive: %w", err)
	}

	reportPath := filepath.Join(opts.InputDir, reportFileName)
	data := ReportData{
		GeneratedAt: now(),
		InputDir:    opts.InputDir,
		ArchivePath: outPath,
		Files:       load.Files,
		DateCounts:  counts,
	}
	if err := reports.WriteTextFile(reportPath, []byte(BuildReport(data))); err != nil {
		return Result{}, fmt.Errorf("Run: write report: %w", err)
	}

	res := Result{
		ArchivePath:     outPath,
		ReportPath:      reportPath,
		FilesProcessed:  len(load.Files),
		InputMessages:   data.TotalInput(),
		OutputMessages:  data.TotalOutput(),
		SkippedMessages: len(part.Skipped),
		UsersWritten:    len(users),
		DatesWritten:    len(counts),
		TeamID:          syn.TeamID,
	}
	if !res.CountsMatch() {
		logger.Warn("input and output message counts differ",
			zap.Int("input_messages", res.InputMessages),
			zap.Int("output_messages", res.OutputMessages),
			zap.Int("skipped_messages", res.SkippedMessages))
	}
	return res, nil
}
