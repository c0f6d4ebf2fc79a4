// Package alert fires notifications when a symbol's published state
// changes between runs: the sentiment band moves, or the trade plan
// direction flips. Alerts are advisory; a notifier failure never
// affects the run.
package alert

import (
	"time"

	"github.com/futusense/futusense/internal/core"
)

// Kind identifies what changed.
type Kind string

const (
	KindBandChange      Kind = "band_change"
	KindDirectionChange Kind = "direction_change"
)

// Event is one observed change.
type Event struct {
	Kind       Kind           `json:"kind"`
	Symbol     core.SymbolRef `json:"symbol"`
	Date       string         `json:"date"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Index      float64        `json:"index"`
	Confidence float64        `json:"confidence"`
	At         time.Time      `json:"at"`
}

// Notifier delivers events to one channel.
type Notifier interface {
	Name() string
	Send(event Event) error
}
