package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
)

type AuctionInitArgs struct {
	AuctionID string `json:"auctionId"`
	Timestamp int64  `json:"timestamp"`
	Timeout   int64  `json:"timeout"`
}

// BidRequest is one entry of the bids list in bidRequested and bidderDone.
type BidRequest struct {
	AdUnitCode string `json:"adUnitCode"`
	Bidder     string `json:"bidder"`
	StartTime  int64  `json:"startTime"`
	Source     string `json:"source"`
}

type BidRequestedArgs struct {
	AuctionID string       `json:"auctionId"`
	Bids      []BidRequest `json:"bids"`
}

// BidResponse is the payload of bidAdjustment and bidWon.
type BidResponse struct {
	AuctionID         string  `json:"auctionId"`
	AdUnitCode        string  `json:"adUnitCode"`
	Bidder            string  `json:"bidder"`
	Cpm               float64 `json:"cpm"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	MediaType         string  `json:"mediaType"`
	Source            string  `json:"source"`
	RequestTimestamp  int64   `json:"requestTimestamp"`
	ResponseTimestamp int64   `json:"responseTimestamp"`
}

type BidderDoneArgs struct {
	AuctionID string       `json:"auctionId"`
	Bids      []BidRequest `json:"bids"`
}

type AuctionEndArgs struct {
	AuctionID string `json:"auctionId"`
}

func decodeArgs(eventType string, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s has no args", ErrInvalidArgs, eventType)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgs, eventType, err)
	}
	return nil
}

func normalize(code string) string {
	return strings.ToLower(code)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
