package repack

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestSortByTimestamp_StableOnTies(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"2.0","text":"second-a"}`),
		mustAccept(t, `{"type":"message","ts":"1.0","text":"first"}`),
		mustAccept(t, `{"type":"message","ts":"2.0","text":"second-b"}`),
	}
	sorted := SortByTimestamp(msgs)

	if got := sorted[0].field("text").Str; got != "first" {
		t.Fatalf("sorted[0]=%q, want first", got)
	}
	if got := sorted[1].field("text").Str; got != "second-a" {
		t.Fatalf("sorted[1]=%q, want second-a (stable)", got)
	}
	if got := sorted[2].field("text").Str; got != "second-b" {
		t.Fatalf("sorted[2]=%q, want second-b (stable)", got)
	}

	// Input is untouched.
	if got := msgs[0].field("text").Str; got != "second-a" {
		t.Fatalf("input mutated, msgs[0]=%q", got)
	}
}

func TestSortByTimestamp_UnusableTSSortsFirst(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"5.0"}`),
		mustAccept(t, `{"type":"message"}`),
		mustAccept(t, `{"type":"message","ts":"bogus"}`),
	}
	sorted := SortByTimestamp(msgs)

	if sorted[0].HasTS() {
		t.Fatalf("sorted[0] has ts, want the missing-ts message first")
	}
	if got := sorted[1].field("ts").Str; got != "bogus" {
		t.Fatalf("sorted[1] ts=%q, want bogus (key zero, stable)", got)
	}
	if got := sorted[2].field("ts").Str; got != "5.0" {
		t.Fatalf("sorted[2] ts=%q, want 5.0", got)
	}
}

func TestPartitionByDate_BucketsByUTCDate(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"86399.5"}`),
		mustAccept(t, `{"type":"message","ts":"86400.0"}`),
		mustAccept(t, `{"type":"message","ts":"1599934232.150700"}`),
	}
	p := PartitionByDate(msgs, nil)

	dates := p.Dates()
	want := []string{"1970-01-01", "1970-01-02", "2020-09-12"}
	if len(dates) != len(want) {
		t.Fatalf("Dates=%v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("Dates=%v, want %v", dates, want)
		}
	}
	if p.Total() != 3 {
		t.Fatalf("Total=%d, want 3", p.Total())
	}
	if p.MinTS != 86399.5 {
		t.Fatalf("MinTS=%v, want 86399.5", p.MinTS)
	}
	if len(p.Skipped) != 0 {
		t.Fatalf("Skipped=%v, want none", p.Skipped)
	}
}

func TestPartitionByDate_OrderedWithinBucket(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"30.0"}`),
		mustAccept(t, `{"type":"message","ts":"10.0"}`),
		mustAccept(t, `{"type":"message","ts":"20.0"}`),
	}
	p := PartitionByDate(msgs, nil)

	bucket := p.Buckets["1970-01-01"]
	if len(bucket) != 3 {
		t.Fatalf("bucket=%d messages, want 3", len(bucket))
	}
	prev := -1.0
	for i, m := range bucket {
		ts, _ := m.ParseTS()
		if ts < prev {
			t.Fatalf("bucket[%d] ts=%v after %v, want non-decreasing", i, ts, prev)
		}
		prev = ts
	}
}

func TestPartitionByDate_SkipsAndWarnsUnusableTS(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"1.0"}`),
		mustAccept(t, `{"type":"message","client_msg_id":"abc-1"}`),
		mustAccept(t, `{"type":"message","ts":"zzz"}`),
	}

	core, logs := observer.New(zapcore.WarnLevel)
	p := PartitionByDate(msgs, zap.New(core))

	if p.Total() != 1 {
		t.Fatalf("Total=%d, want 1", p.Total())
	}
	if len(p.Skipped) != 2 {
		t.Fatalf("Skipped=%d, want 2", len(p.Skipped))
	}
	if !p.Skipped[0].Missing || p.Skipped[0].ClientMsgID != "abc-1" {
		t.Fatalf("Skipped[0]=%+v, want missing ts with id abc-1", p.Skipped[0])
	}
	if p.Skipped[1].Missing {
		t.Fatalf("Skipped[1]=%+v, want unparsable (not missing)", p.Skipped[1])
	}

	warns := logs.FilterMessage("skipping message with unusable ts").All()
	if len(warns) != 2 {
		t.Fatalf("warnings=%d, want 2", len(warns))
	}
	if got := warns[0].ContextMap()["client_msg_id"]; got != "abc-1" {
		t.Fatalf("warn id=%v, want abc-1", got)
	}
	if got := warns[1].ContextMap()["client_msg_id"]; got != "NO_ID" {
		t.Fatalf("warn id=%v, want NO_ID placeholder", got)
	}
}

func TestPartitionByDate_SkipsOutOfCalendarRangeTS(t *testing.T) {
	t.Parallel()

	// A microseconds ts missing its dot and a year-10000 ts have no
	// YYYY-MM-DD bucket; both take the skip path instead of minting
	// out-of-layout dates.
	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":"1599934232.150700"}`),
		mustAccept(t, `{"type":"message","ts":"1599934232150700","client_msg_id":"big-1"}`),
		mustAccept(t, `{"type":"message","ts":"253402300800"}`),
	}

	core, logs := observer.New(zapcore.WarnLevel)
	p := PartitionByDate(msgs, zap.New(core))

	dates := p.Dates()
	if len(dates) != 1 || dates[0] != "2020-09-12" {
		t.Fatalf("Dates=%v, want [2020-09-12] only", dates)
	}
	if p.Total() != 1 {
		t.Fatalf("Total=%d, want 1", p.Total())
	}
	if p.MinTS != 1599934232.1507 {
		t.Fatalf("MinTS=%v, want 1599934232.1507 (out-of-range ts excluded)", p.MinTS)
	}
	if len(p.Skipped) != 2 {
		t.Fatalf("Skipped=%d, want 2", len(p.Skipped))
	}
	for _, sk := range p.Skipped {
		if sk.Missing {
			t.Fatalf("Skipped=%+v, want present-but-unusable ts", sk)
		}
	}
	if p.Skipped[0].ClientMsgID != "big-1" {
		t.Fatalf("Skipped[0]=%+v, want big-1 first (stable zero-key order)", p.Skipped[0])
	}
	if got := logs.FilterMessage("skipping message with unusable ts").Len(); got != 2 {
		t.Fatalf("warnings=%d, want 2", got)
	}
}

func TestPartitionByDate_MinTSZeroWhenNoneParse(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		mustAccept(t, `{"type":"message"}`),
	}
	p := PartitionByDate(msgs, nil)
	if p.MinTS != 0 {
		t.Fatalf("MinTS=%v, want 0", p.MinTS)
	}
	if p.Total() != 0 {
		t.Fatalf("Total=%d, want 0", p.Total())
	}
}

func TestPartitionByDate_ZeroTSBuckets(t *testing.T) {
	t.Parallel()

	// A present, parseable ts of zero is a real timestamp, not a missing one.
	msgs := []Message{
		mustAccept(t, `{"type":"message","ts":0}`),
	}
	p := PartitionByDate(msgs, nil)
	if p.Total() != 1 {
		t.Fatalf("Total=%d, want 1", p.Total())
	}
	if _, ok := p.Buckets["1970-01-01"]; !ok {
		t.Fatalf("Buckets=%v, want 1970-01-01", p.Dates())
	}
}

func TestBucketDate_FloorsNegative(t *testing.T) {
	t.Parallel()

	if got := bucketDate(-0.5); got != "1969-12-31" {
		t.Fatalf("bucketDate(-0.5)=%q, want 1969-12-31", got)
	}
}
