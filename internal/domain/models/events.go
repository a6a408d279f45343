package models

import "time"

// SeriesRefreshed is published after a symbol's cache was replaced by a fetch.
type SeriesRefreshed struct {
	Symbol    Symbol    `json:"symbol"`
	First     Date      `json:"first"`
	Last      Date      `json:"last"`
	Points    int       `json:"points"`
	Source    string    `json:"source"`
	Instance  string    `json:"instance,omitempty"`
	Refreshed time.Time `json:"refreshed_at"`
}
