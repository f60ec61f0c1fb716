package handler

import "github.com/snowie2000/stepdaddylive/service"

type Channel struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tags   []string `json:"tags"`
	Logo   string   `json:"logo,omitempty"`
	Stream string   `json:"stream"`
}

type Status struct {
	Channels   int                           `json:"channels"`
	Components map[string]service.StatusInfo `json:"components"`
}
