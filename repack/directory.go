package repack

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tidwall/gjson"
)

// Directory is the deduplicated user directory plus the team-id tally
// accumulated in one pass over the accepted messages.
type Directory struct {
	Users *orderedmap.OrderedMap[string, User]
	Teams TeamTally
}

// BuildDirectory walks the accepted messages in load order. A user id is
// registered at most once, from the first message carrying both the id and
// a user_profile object; later occurrences never overwrite it. Messages
// without a profile leave the user unregistered until a profiled one
// arrives.
func BuildDirectory(msgs []Message) Directory {
	d := Directory{Users: orderedmap.New[string, User]()}
	for _, m := range msgs {
		if u, ok := userFromMessage(m); ok {
			if _, exists := d.Users.Get(u.ID); !exists {
				d.Users.Set(u.ID, u)
			}
		}
		for _, team := range m.TeamCandidates() {
			d.Teams.Add(team)
		}
	}
	return d
}

// UserIDs returns the registered ids in insertion order. Non-nil even when
// empty, so the members array serializes as [].
func (d Directory) UserIDs() []string {
	if d.Users == nil {
		return []string{}
	}
	out := make([]string, 0, d.Users.Len())
	for pair := d.Users.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// UsersInOrder returns the registered users in insertion order, non-nil.
func (d Directory) UsersInOrder() []User {
	if d.Users == nil {
		return []User{}
	}
	out := make([]User, 0, d.Users.Len())
	for pair := d.Users.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func userFromMessage(m Message) (User, bool) {
	id := m.UserID()
	if id == "" {
		return User{}, false
	}
	p := m.field("user_profile")
	if !p.IsObject() {
		return User{}, false
	}

	teamID := ""
	if r := m.field("team"); r.Type == gjson.String {
		teamID = r.Str
	}

	return User{
		ID:       id,
		TeamID:   teamID,
		Name:     p.Get("name").String(),
		Deleted:  false,
		RealName: p.Get("real_name").String(),
		Profile: UserProfile{
			FirstName:   p.Get("first_name").String(),
			LastName:    "",
			RealName:    p.Get("real_name").String(),
			DisplayName: p.Get("display_name").String(),
			Image72:     p.Get("image_72").String(),
			AvatarHash:  p.Get("avatar_hash").String(),
		},
	}, true
}

// TeamTally counts how often each team id appears across the team-bearing
// fields of the accepted messages. First-seen order is retained so the
// dominant pick stays deterministic when counts tie.
type TeamTally struct {
	counts map[string]int
	order  []string
}

func (t *TeamTally) Add(id string) {
	if id == "" {
		return
	}
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[id]; !ok {
		t.order = append(t.order, id)
	}
	t.counts[id]++
}

// Len returns the number of distinct team ids seen.
func (t TeamTally) Len() int {
	return len(t.counts)
}

// Count returns the multiplicity recorded for id.
func (t TeamTally) Count(id string) int {
	return t.counts[id]
}

// Dominant returns the most frequent team id. Ties resolve to the id seen
// first.
func (t TeamTally) Dominant() (string, bool) {
	if len(t.order) == 0 {
		return "", false
	}
	ranked := append([]string(nil), t.order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.counts[ranked[i]] > t.counts[ranked[j]]
	})
	return ranked[0], true
}
