package clanbattlehandlers

import "context"

// Handlers defines the interface for clan battle event handlers. Handlers
// never return domain failures; those become notices to the member.
type Handlers interface {
	HandleButtonPressed(ctx context.Context, payload *ButtonPressedPayloadV1) error
	HandleTextReceived(ctx context.Context, payload *TextReceivedPayloadV1) error
	HandleRosterSynced(ctx context.Context, payload *RosterSyncedPayloadV1) error
}

// Notifier is the fire-and-forget side of the messenger.
type Notifier interface {
	Defer(ctx context.Context, interactionID string) error
	Notify(ctx context.Context, channelID, memberID, interactionID, text string) error
}
