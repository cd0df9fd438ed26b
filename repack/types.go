package repack

// Identifiers and placeholder values for the synthesized aggregates. The
// input is a flat pile of search results, so the channel and any unknowable
// team/user references are fabricated with fixed sentinels.
const (
	ChannelID   = "C_SEARCH_RESULTS"
	ChannelName = "search_results"

	UnknownTeamID = "T_UNKNOWN"
	UnknownUserID = "U_UNKNOWN"

	channelPurposeText = "Combined messages from search export"
)

// User is one entry in users.json. Field order matches the layout expected
// by downstream ingestion tools.
type User struct {
	ID       string      `json:"id"`
	TeamID   string      `json:"team_id"`
	Name     string      `json:"name"`
	Deleted  bool        `json:"deleted"`
	RealName string      `json:"real_name"`
	Profile  UserProfile `json:"profile"`
}

// UserProfile is the nested profile block of a User. LastName is always
// empty; search exports don't carry it.
type UserProfile struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
	Image72     string `json:"image_72"`
	AvatarHash  string `json:"avatar_hash"`
}

// Channel is the single synthetic channel written to channels.json. Exactly
// one is produced per run; it exists only because the target layout requires
// a channel container for the combined message set.
type Channel struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Created    int64          `json:"created"`
	Creator    string         `json:"creator"`
	IsArchived bool           `json:"is_archived"`
	IsMpim     bool           `json:"is_mpim"`
	Members    []string       `json:"members"`
	Topic      ChannelTopic   `json:"topic"`
	Purpose    ChannelPurpose `json:"purpose"`
}

// ChannelTopic is the topic block of a Channel.
type ChannelTopic struct {
	Value   string `json:"value"`
	Creator string `json:"creator"`
	LastSet int64  `json:"last_set"`
}

// ChannelPurpose is the purpose block of a Channel.
type ChannelPurpose struct {
	Value   string `json:"value"`
	Creator string `json:"creator"`
	LastSet int64  `json:"last_set"`
}

// MessageEnvelope documents the fields the pipeline reads from otherwise
// opaque message records. Records are copied through verbatim; anything not
// listed here is never inspected. The schema generator reflects this type
// into messages.schema.json.
type MessageEnvelope struct {
	// Type must equal "message" for a record to be accepted.
	Type string `json:"type"`

	// TS is epoch seconds, usually a numeric string like "1599934232.150700".
	TS string `json:"ts,omitempty"`

	// User is the posting user's id; registered in the user directory the
	// first time it appears together with a UserProfile.
	User        string               `json:"user,omitempty"`
	UserProfile *EnvelopeUserProfile `json:"user_profile,omitempty"`

	// ClientMsgID identifies a message in skip warnings.
	ClientMsgID string `json:"client_msg_id,omitempty"`

	// Team, SourceTeam and UserTeam each contribute a candidate for the
	// dominant team id when non-empty.
	Team       string `json:"team,omitempty"`
	SourceTeam string `json:"source_team,omitempty"`
	UserTeam   string `json:"user_team,omitempty"`
}

// EnvelopeUserProfile is the inline profile attached to messages in search
// exports. It is the source material for UserProfile.
type EnvelopeUserProfile struct {
	Name        string `json:"name,omitempty"`
	RealName    string `json:"real_name,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Image72     string `json:"image_72,omitempty"`
	AvatarHash  string `json:"avatar_hash,omitempty"`
}
