package repack

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/repack-o-bot/repack/fileutils"
)

// ReportData is everything the reconciliation report needs.
type ReportData struct {
	GeneratedAt time.Time
	InputDir    string
	ArchivePath string
	// Files is the loader's per-file outcome, failed files included.
	Files []FileResult
	// DateCounts is the emitter's per-date output tally.
	DateCounts map[string]int
}

// TotalInput sums the accepted counts across input files.
func (d ReportData) TotalInput() int {
	total := 0
	for _, f := range d.Files {
		total += f.Count
	}
	return total
}

// TotalOutput sums the bucketed counts across output dates.
func (d ReportData) TotalOutput() int {
	total := 0
	for _, c := range d.DateCounts {
		total += c
	}
	return total
}

// CountsMatch reports input/output parity, the condition the report exists
// to confirm.
func (d ReportData) CountsMatch() bool {
	return d.TotalInput() == d.TotalOutput()
}

// BuildReport renders report.txt. The line structure is fixed; operators
// diff these reports between runs.
func BuildReport(d ReportData) string {
	var b strings.Builder

	b.WriteString("Slack JSON Conversion Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Input Directory: %s\n", d.InputDir)
	fmt.Fprintf(&b, "Output ZIP: %s\n\n", d.ArchivePath)
	fmt.Fprintf(&b, "Total JSON Files Processed: %d\n\n", len(d.Files))

	b.WriteString("Input JSON Files Loaded:\n")
	files := append([]FileResult(nil), d.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	for _, f := range files {
		fmt.Fprintf(&b, "  %s: %d messages\n", f.Name, f.Count)
	}

	fmt.Fprintf(&b, "\nTotal Input Messages: %d\n", d.TotalInput())
	fmt.Fprintf(&b, "Output Files Created (%s/):\n", ChannelName)
	dates := make([]string, 0, len(d.DateCounts))
	for date := range d.DateCounts {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		fmt.Fprintf(&b, "  %s.json: %d messages\n", date, d.DateCounts[date])
	}

	fmt.Fprintf(&b, "\nTotal Output Messages: %d\n", d.TotalOutput())
	if d.CountsMatch() {
		fmt.Fprintf(&b, "\nSummary: All messages from the %d JSON files were successfully processed.\n", len(d.Files))
	} else {
		b.WriteString("\nWarning: Input and output message counts differ. Check for invalid messages or errors.\n")
	}
	return b.String()
}

// TextFileWriter persists rendered text artifacts such as the report.
type TextFileWriter interface {
	WriteTextFile(path string, data []byte) error
}

// AtomicTextWriter is the default TextFileWriter.
type AtomicTextWriter struct {
	// Mode defaults to 0o644.
	Mode fs.FileMode
}

func (w AtomicTextWriter) WriteTextFile(path string, data []byte) error {
	return fileutils.WriteFileAtomicSameDir(path, data, w.Mode)
}
