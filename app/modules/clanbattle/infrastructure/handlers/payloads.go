package clanbattlehandlers

// Inbound topics published by the chat gateway. JetStream streams are named
// after their topic, so topics carry no dots.
const (
	ButtonPressedV1 = "clanbattle_button_pressed_v1"
	TextReceivedV1  = "clanbattle_text_received_v1"
	RosterSyncedV1  = "clanbattle_roster_synced_v1"
)

// ButtonPressedPayloadV1 is a click on a panel button. CustomID carries the
// action token the button was rendered with.
type ButtonPressedPayloadV1 struct {
	InteractionID string `json:"interaction_id"`
	CustomID      string `json:"custom_id"`
	MemberID      string `json:"member_id"`
	DisplayName   string `json:"display_name,omitempty"`
	ChannelID     string `json:"channel_id"`
}

type TextReceivedPayloadV1 struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name,omitempty"`
	ChannelID   string `json:"channel_id"`
	Text        string `json:"text"`
}

type RosterEntryV1 struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
}

// RosterSyncedPayloadV1 is the full member list of the clan's group.
type RosterSyncedPayloadV1 struct {
	Members []RosterEntryV1 `json:"members"`
}
