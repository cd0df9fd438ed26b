package repack

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Message is one accepted input record. The raw bytes are carried through to
// the output buckets verbatim, so field order and number formatting survive
// repackaging; only the handful of envelope fields are ever read.
type Message struct {
	raw json.RawMessage
}

// MarshalJSON emits the record exactly as it appeared in its source file.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return []byte("null"), nil
	}
	return m.raw, nil
}

func (m Message) field(path string) gjson.Result {
	return gjson.GetBytes(m.raw, path)
}

// HasTS reports whether the record carries a ts field at all, parseable or
// not.
func (m Message) HasTS() bool {
	return m.field("ts").Exists()
}

// Epoch-second bounds of the timestamps the date layout can hold:
// 0001-01-01T00:00:00Z inclusive to 10000-01-01T00:00:00Z exclusive.
const (
	minUsableTS float64 = -62135596800
	maxUsableTS float64 = 253402300800
)

// ParseTS returns the record's timestamp as epoch seconds. Search exports
// usually carry ts as a plain decimal string ("1599934232.150700"); a bare
// JSON number is accepted too. Missing, non-decimal and non-finite values
// report false, as do values whose UTC calendar year falls outside 1
// through 9999: such timestamps have no YYYY-MM-DD bucket to land in.
func (m Message) ParseTS() (float64, bool) {
	r := m.field("ts")
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		// ParseFloat also reads Go hex-float literals; ts is decimal only.
		if strings.ContainsAny(s, "xX") {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || v < minUsableTS || v >= maxUsableTS {
		return 0, false
	}
	return v, true
}

// sortKey orders messages for bucketing. Records without a usable ts sort
// as zero, the same rule the partitioner uses, so ordering and bucketing
// can never disagree.
func (m Message) sortKey() float64 {
	v, ok := m.ParseTS()
	if !ok {
		return 0
	}
	return v
}

// UserID returns the posting user's id, or "" when absent or not a string.
func (m Message) UserID() string {
	r := m.field("user")
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// ClientMsgID identifies the record in skip warnings; "" when absent.
func (m Message) ClientMsgID() string {
	r := m.field("client_msg_id")
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// TeamCandidates returns the non-empty team, source_team and user_team
// values, in that order. Every occurrence counts toward the dominant-team
// tally, so duplicates across messages are intentional.
func (m Message) TeamCandidates() []string {
	var out []string
	for _, path := range []string{"team", "source_team", "user_team"} {
		r := m.field(path)
		if r.Type == gjson.String && r.Str != "" {
			out = append(out, r.Str)
		}
	}
	return out
}

// acceptRecord wraps a decoded array element as a Message if it is an object
// whose type field equals "message". Anything else is ignored without
// failing the surrounding file.
func acceptRecord(raw json.RawMessage) (Message, bool) {
	v := gjson.ParseBytes(raw)
	if !v.IsObject() {
		return Message{}, false
	}
	t := v.Get("type")
	if t.Type != gjson.String || t.Str != "message" {
		return Message{}, false
	}
	return Message{raw: raw}, true
}
