package repack

import "math"

// Synthesis is the aggregate output of one run: the single synthetic
// channel plus the dominant team id.
type Synthesis struct {
	Channel Channel
	// TeamID is the most frequent team candidate across the accepted
	// messages, UnknownTeamID when none carried one. The archive layout has
	// no slot for it; it is surfaced for callers and logs only.
	TeamID string
}

// Synthesize fabricates the channel record and picks the dominant team id.
// The creator is the first registered user and members share the directory's
// insertion order. created is the floor of the earliest parsed ts, 0 when no
// message had a usable one.
func Synthesize(dir Directory, minTS float64) Synthesis {
	teamID := UnknownTeamID
	if id, ok := dir.Teams.Dominant(); ok {
		teamID = id
	}

	members := dir.UserIDs()
	creator := UnknownUserID
	if len(members) > 0 {
		creator = members[0]
	}

	return Synthesis{
		TeamID: teamID,
		Channel: Channel{
			ID:         ChannelID,
			Name:       ChannelName,
			Created:    int64(math.Floor(minTS)),
			Creator:    creator,
			IsArchived: false,
			IsMpim:     false,
			Members:    members,
			Topic:      ChannelTopic{Value: "", Creator: "", LastSet: 0},
			Purpose:    ChannelPurpose{Value: channelPurposeText, Creator: "", LastSet: 0},
		},
	}
}
