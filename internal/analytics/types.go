package analytics

import (
	"github.com/google/uuid"
	"github.com/katatrina/roxot-collector/internal/adapter"
)

const (
	AuctionStatusRunning  = "running"
	AuctionStatusFinished = "finished"
)

const (
	BidderStatusRequested = "requested"
	BidderStatusBid       = "bid"
	BidderStatusNoBid     = "noBid"
	BidderStatusTimeout   = "timeout"
)

// Output event codes and their display names.
const (
	EventAuction         = "a"
	EventImpression      = "i"
	EventBidAfterTimeout = "bat"

	EventNameAuction         = "Auction"
	EventNameImpression      = "Bid won"
	EventNameBidAfterTimeout = "Bid After Timeout"
)

// otherLabel stands in for pass-through event types in metric labels.
const otherLabel = "other"

var labelledEvents = map[string]bool{
	adapter.EventAuctionInit:   true,
	adapter.EventBidRequested:  true,
	adapter.EventBidAdjustment: true,
	adapter.EventBidderDone:    true,
	adapter.EventAuctionEnd:    true,
	adapter.EventBidWon:        true,
	EventAuction:               true,
	EventImpression:            true,
	EventBidAfterTimeout:       true,
}

// metricLabel bounds label values to the known event types; any other type
// comes from the host and is folded into one series.
func metricLabel(eventType string) string {
	if labelledEvents[eventType] {
		return eventType
	}
	return otherLabel
}

const (
	defaultMediaType = "-"
	defaultSource    = "client"

	// noCpm marks a bidder that has not answered yet.
	noCpm = -1
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BidderRequest tracks one bidder on one ad unit. Cpm only ever grows.
type BidderRequest struct {
	Bidder         string  `json:"bidder"`
	IsAfterTimeout int     `json:"isAfterTimeout"`
	Start          int64   `json:"start"`
	Finish         int64   `json:"finish"`
	Status         string  `json:"status"`
	Cpm            float64 `json:"cpm"`
	Size           Size    `json:"size"`
	MediaType      string  `json:"mediaType"`
	Source         string  `json:"source"`
}

func (b *BidderRequest) Clone() *BidderRequest {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

// AdUnitAuction is the part of an auction that concerns one placement.
type AdUnitAuction struct {
	AdUnit  string                    `json:"adUnit"`
	Start   int64                     `json:"start"`
	Timeout int64                     `json:"timeout"`
	Finish  int64                     `json:"finish"`
	Status  string                    `json:"status"`
	Bidders map[string]*BidderRequest `json:"bidders"`
}

func (u *AdUnitAuction) Clone() *AdUnitAuction {
	if u == nil {
		return nil
	}
	out := *u
	out.Bidders = make(map[string]*BidderRequest, len(u.Bidders))
	for name, bidder := range u.Bidders {
		out.Bidders[name] = bidder.Clone()
	}
	return &out
}

func (u *AdUnitAuction) finished() bool {
	return u.Status == AuctionStatusFinished
}

// Auction is one bidding round. Finish stays 0 until the auction ends.
type Auction struct {
	ID      string                    `json:"id"`
	Start   int64                     `json:"start"`
	Timeout int64                     `json:"timeout"`
	Finish  int64                     `json:"finish"`
	AdUnits map[string]*AdUnitAuction `json:"adUnits"`

	// received is the collector's clock at auctionInit. Start comes from the
	// host clock and may be missing or skewed, so eviction uses received.
	received int64
}

func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	out := *a
	out.AdUnits = make(map[string]*AdUnitAuction, len(a.AdUnits))
	for code, unit := range a.AdUnits {
		out.AdUnits[code] = unit.Clone()
	}
	return &out
}

// BidAfterTimeout is the payload of a "bat" record.
type BidAfterTimeout struct {
	Auction   *AdUnitAuction `json:"auction"`
	AdUnit    string         `json:"adUnit"`
	Bidder    string         `json:"bidder"`
	Cpm       float64        `json:"cpm"`
	Size      Size           `json:"size"`
	MediaType string         `json:"mediaType"`
	Start     int64          `json:"start"`
	Finish    int64          `json:"finish"`
}

// Impression is the payload of an "i" record.
type Impression struct {
	IsNew     int            `json:"isNew"`
	Auction   *AdUnitAuction `json:"auction"`
	AdUnit    string         `json:"adUnit"`
	Bidder    string         `json:"bidder"`
	Cpm       float64        `json:"cpm"`
	Size      Size           `json:"size"`
	MediaType string         `json:"mediaType"`
	Source    string         `json:"source"`
}

// Record is one queued output event. Data never aliases the live auction tree.
type Record struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"eventType"`
	EventName string    `json:"eventName"`
	Data      any       `json:"data"`
}

func newRecord(eventType, eventName string, data any) Record {
	return Record{
		ID:        uuid.New(),
		EventType: eventType,
		EventName: eventName,
		Data:      data,
	}
}
