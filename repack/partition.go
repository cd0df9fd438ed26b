package repack

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/repack-o-bot/repack/fileutils"
)

// SkippedMessage records one accepted message that could not be bucketed.
type SkippedMessage struct {
	// ClientMsgID is empty when the record carries none.
	ClientMsgID string
	// Missing distinguishes an absent ts from an unparsable or
	// out-of-range one.
	Missing bool
}

// Partition is the date-bucketed view of the accepted messages.
type Partition struct {
	// Buckets maps UTC YYYY-MM-DD dates to messages in ascending ts order.
	Buckets map[string][]Message
	// MinTS is the smallest successfully parsed ts, 0 when none parsed.
	MinTS float64
	// Skipped lists accepted messages excluded from every bucket.
	Skipped []SkippedMessage
}

// Dates returns the bucket dates in ascending order.
func (p Partition) Dates() []string {
	out := make([]string, 0, len(p.Buckets))
	for d := range p.Buckets {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Total returns the number of bucketed messages.
func (p Partition) Total() int {
	total := 0
	for _, msgs := range p.Buckets {
		total += len(msgs)
	}
	return total
}

// SortByTimestamp returns a copy of msgs stable-sorted by parsed ts.
// Records without a usable ts sort with key zero, so they cluster at the
// front in their original relative order.
func SortByTimestamp(msgs []Message) []Message {
	sorted := append([]Message(nil), msgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].sortKey() < sorted[j].sortKey()
	})
	return sorted
}

// PartitionByDate sorts the accepted messages and groups them into UTC
// calendar-date buckets. Messages without a usable ts (see ParseTS) are
// warned about and left out of every bucket; the resulting input/output
// difference is what the reconciliation report surfaces.
func PartitionByDate(msgs []Message, logger *zap.Logger) Partition {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := Partition{Buckets: make(map[string][]Message)}
	hasMin := false
	for _, m := range SortByTimestamp(msgs) {
		ts, ok := m.ParseTS()
		if !ok {
			sk := SkippedMessage{ClientMsgID: m.ClientMsgID(), Missing: !m.HasTS()}
			p.Skipped = append(p.Skipped, sk)
			logger.Warn("skipping message with unusable ts",
				zap.String("client_msg_id", skippedID(sk)),
				zap.Bool("ts_missing", sk.Missing))
			continue
		}
		if !hasMin || ts < p.MinTS {
			p.MinTS = ts
			hasMin = true
		}
		date := bucketDate(ts)
		p.Buckets[date] = append(p.Buckets[date], m)
	}
	return p
}

// skippedID is the identifier printed in skip warnings. The value is
// input-controlled, so it is newline-sanitized and capped.
func skippedID(s SkippedMessage) string {
	if s.ClientMsgID == "" {
		return "NO_ID"
	}
	return fileutils.Truncate(fileutils.SanitizeNewlines(s.ClientMsgID), 64)
}

// bucketDate floors ts to its UTC calendar date.
func bucketDate(ts float64) string {
	return time.Unix(int64(math.Floor(ts)), 0).UTC().Format("2006-01-02")
}
