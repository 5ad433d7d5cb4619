package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/katatrina/roxot-collector/internal/clock"
	"github.com/katatrina/roxot-collector/internal/delivery"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/metric"
	"github.com/katatrina/roxot-collector/internal/scheduler"
	"github.com/katatrina/roxot-collector/internal/storage"
)

// Lifecycle event names emitted by the header-bidding host.
const (
	EventAuctionInit   = "auctionInit"
	EventBidRequested  = "bidRequested"
	EventBidAdjustment = "bidAdjustment"
	EventBidderDone    = "bidderDone"
	EventAuctionEnd    = "auctionEnd"
	EventBidWon        = "bidWon"
)

// Event is one host event. Args keeps the host payload undecoded so every
// adapter can read the fields it cares about.
type Event struct {
	EventType string          `json:"eventType" binding:"required"`
	Args      json.RawMessage `json:"args"`
}

// NewEvent encodes args into an Event.
func NewEvent(eventType string, args any) (Event, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s args: %w", eventType, err)
	}

	return Event{
		EventType: eventType,
		Args:      raw,
	}, nil
}

// EnableRequest carries what the page hands over when analytics is enabled.
type EnableRequest struct {
	Options   json.RawMessage `json:"options" binding:"required"`
	PageURL   string          `json:"pageUrl"`
	UserAgent string          `json:"userAgent"`
	VisitorID string          `json:"visitorId"`
}

// Adapter is one enabled analytics session.
type Adapter interface {
	Enable(ctx context.Context, req EnableRequest) error
	Track(ctx context.Context, ev Event) error
	Disable(ctx context.Context) error
	Options() any
}

// Settings are the process-wide knobs an adapter honours.
type Settings struct {
	EventServer  string
	ConfigServer string
	FlushDelay   time.Duration
	AuctionTTL   time.Duration
	MaxQueueSize int
}

// Deps are the collaborators handed to a new adapter session.
type Deps struct {
	SessionID string
	Store     storage.Store
	Clock     clock.Clock
	Scheduler scheduler.Scheduler
	Fetcher   delivery.ConfigFetcher
	Sender    delivery.Sender
	Metrics   *metric.Metrics
	Tap       event.EventSender // optional live tail
	Settings  Settings
}

// Factory builds a disabled adapter session.
type Factory func(deps Deps) Adapter
