package clanbattledomain

// ButtonStyle follows the chat platform's numeric button styles.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = 1
	ButtonSuccess ButtonStyle = 3
)

type Button struct {
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
	CustomID string      `json:"custom_id"`
}

// RenderModel is everything the gateway needs to draw a panel.
type RenderModel struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Color       int      `json:"color"`
	Author      string   `json:"author"`
	Buttons     []Button `json:"buttons,omitempty"`
}

const (
	BossPanelColor  = 2326507
	DailyPanelColor = 15105570
)
