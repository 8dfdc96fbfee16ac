package mcp

import "github.com/1broseidon/wlframe/internal/window"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Source string        `json:"source,omitempty"`
	Status window.Status `json:"status"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Decorated bool `json:"decorated,omitempty" jsonschema:"When true, list only windows drawing client-side decorations"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []window.Info `json:"windows"`
}

// GetWindowInput is the input for the get_window tool.
type GetWindowInput struct {
	ID uint32 `json:"id" jsonschema:"Window id as reported by list_windows"`
}

// GetWindowOutput is the output for the get_window tool.
type GetWindowOutput struct {
	Window window.Info `json:"window"`
}

// ListOffersInput is the input for the list_offers tool.
type ListOffersInput struct {
	Type string `json:"type,omitempty" jsonschema:"Restrict to one offer type (clipboard, primary-selection, drag-and-drop or new)"`
}

// ListOffersOutput is the output for the list_offers tool.
type ListOffersOutput struct {
	Offers []window.OfferInfo `json:"offers"`
	// Capacity is the number of offer slots the session has.
	Capacity int `json:"capacity"`
}
