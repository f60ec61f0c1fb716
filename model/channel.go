package model

import "strings"

// AdultMarker prefixes channel names that sort last and share one metadata entry.
const AdultMarker = "18+"

type Channel struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
	Logo string   `json:"logo,omitempty"` // proxied path, empty when there is none
}

// Digest is the snapshot key of a channel.
func (c Channel) Digest() string {
	return c.ID
}

func (c Channel) IsAdult() bool {
	return strings.HasPrefix(c.Name, AdultMarker)
}

// Meta is the static per-channel information merged into the catalog.
type Meta struct {
	Tags []string `json:"tags"`
	Logo string   `json:"logo"`
}
