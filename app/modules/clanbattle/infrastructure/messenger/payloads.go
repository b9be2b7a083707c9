package clanbattlemessenger

import clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"

// Subjects served by the chat gateway. Panel requests use core NATS
// request/reply; the rest are JetStream topics.
const (
	PanelCreateRequestV1  = "discord.panel.create.v1"
	PanelEditRequestV1    = "discord.panel.edit.v1"
	InteractionDeferredV1 = "discord_interaction_defer_v1"
	NoticeSendRequestedV1 = "discord_notice_send_v1"
)

type PanelCreatePayloadV1 struct {
	ChannelID string                       `json:"channel_id"`
	Panel     clanbattledomain.RenderModel `json:"panel"`
}

type PanelEditPayloadV1 struct {
	ChannelID string                       `json:"channel_id"`
	MessageID string                       `json:"message_id"`
	Panel     clanbattledomain.RenderModel `json:"panel"`
}

// PanelReplyV1 is the gateway's answer to a create or edit request. A
// non-empty Error means the platform call failed.
type PanelReplyV1 struct {
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type InteractionDeferPayloadV1 struct {
	InteractionID string `json:"interaction_id"`
}

// NoticePayloadV1 asks the gateway to show text to one member. With an
// interaction id it is sent as an ephemeral follow-up.
type NoticePayloadV1 struct {
	ChannelID     string `json:"channel_id"`
	MemberID      string `json:"member_id"`
	InteractionID string `json:"interaction_id,omitempty"`
	Text          string `json:"text"`
}
