package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/katatrina/roxot-collector/internal/adapter"
)

// handle applies one host event to the auction cache and returns the records
// it produced. The caller holds the state mutex.
func (a *Adapter) handle(ctx context.Context, ev adapter.Event) ([]Record, error) {
	switch ev.EventType {
	case adapter.EventAuctionInit:
		return nil, a.handleAuctionInit(ev.Args)
	case adapter.EventBidRequested:
		return nil, a.handleBidRequested(ev.Args)
	case adapter.EventBidAdjustment:
		return a.handleBidAdjustment(ev.Args)
	case adapter.EventBidderDone:
		return nil, a.handleBidderDone(ev.Args)
	case adapter.EventAuctionEnd:
		return a.handleAuctionEnd(ev.Args)
	case adapter.EventBidWon:
		return a.handleBidWon(ctx, ev.Args)
	default:
		return a.handleOtherEvent(ev), nil
	}
}

func (a *Adapter) handleAuctionInit(raw json.RawMessage) error {
	var args AuctionInitArgs
	if err := decodeArgs(adapter.EventAuctionInit, raw, &args); err != nil {
		return err
	}

	now := a.now()
	if pruned := a.cache.prune(now); pruned > 0 {
		a.logger.Debug().Int("pruned", pruned).Int("cached", a.cache.len()).Msg("old auctions pruned")
	}

	a.cache.put(&Auction{
		ID:       args.AuctionID,
		Start:    args.Timestamp,
		Timeout:  args.Timeout,
		AdUnits:  make(map[string]*AdUnitAuction),
		received: now,
	})
	return nil
}

func (a *Adapter) handleBidRequested(raw json.RawMessage) error {
	var args BidRequestedArgs
	if err := decodeArgs(adapter.EventBidRequested, raw, &args); err != nil {
		return err
	}

	auction, err := a.auction(args.AuctionID)
	if err != nil {
		return err
	}

	for _, bid := range args.Bids {
		code := normalize(bid.AdUnitCode)
		bidder := normalize(bid.Bidder)
		if !a.options.supportsAdUnit(code) {
			continue
		}

		unit, ok := auction.AdUnits[code]
		if !ok {
			unit = &AdUnitAuction{
				AdUnit:  code,
				Start:   auction.Start,
				Timeout: auction.Timeout,
				Status:  AuctionStatusRunning,
				Bidders: make(map[string]*BidderRequest),
			}
			auction.AdUnits[code] = unit
		}

		if _, ok = unit.Bidders[bidder]; ok {
			continue
		}

		start := bid.StartTime
		if start == 0 {
			start = a.now()
		}
		request := &BidderRequest{
			Bidder:    bidder,
			Start:     start,
			Status:    BidderStatusRequested,
			Cpm:       noCpm,
			MediaType: defaultMediaType,
			Source:    orDefault(bid.Source, defaultSource),
		}
		// a bidder requested after its ad unit finished is late by definition
		if unit.finished() {
			request.IsAfterTimeout = 1
		}
		unit.Bidders[bidder] = request
	}
	return nil
}

func (a *Adapter) handleBidAdjustment(raw json.RawMessage) ([]Record, error) {
	var args BidResponse
	if err := decodeArgs(adapter.EventBidAdjustment, raw, &args); err != nil {
		return nil, err
	}

	code := normalize(args.AdUnitCode)
	if !a.options.supportsAdUnit(code) {
		return nil, nil
	}

	unit, err := a.adUnit(args.AuctionID, code)
	if err != nil {
		return nil, err
	}

	bidder := normalize(args.Bidder)
	request, ok := unit.Bidders[bidder]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownBidder, bidder, code)
	}

	if unit.finished() {
		return []Record{a.bidAfterTimeout(unit, request, args)}, nil
	}

	if args.Cpm > request.Cpm {
		request.Cpm = args.Cpm
		request.Finish = args.ResponseTimestamp
		request.Status = bidStatus(args.Cpm)
		request.Size = Size{Width: args.Width, Height: args.Height}
		request.MediaType = orDefault(args.MediaType, defaultMediaType)
		request.Source = orDefault(args.Source, defaultSource)
	}
	return nil, nil
}

// bidAfterTimeout snapshots the finished ad unit before applying a late bid.
// The record is emitted even when the bid does not beat the stored one.
func (a *Adapter) bidAfterTimeout(unit *AdUnitAuction, request *BidderRequest, args BidResponse) Record {
	late := &BidAfterTimeout{
		Auction:   unit.Clone(),
		AdUnit:    unit.AdUnit,
		Bidder:    request.Bidder,
		Cpm:       args.Cpm,
		Size:      Size{Width: args.Width, Height: args.Height},
		MediaType: orDefault(args.MediaType, defaultMediaType),
		Start:     args.RequestTimestamp,
		Finish:    args.ResponseTimestamp,
	}

	if late.Cpm > request.Cpm {
		request.Cpm = late.Cpm
		request.IsAfterTimeout = 1
		request.Finish = late.Finish
		request.Size = late.Size
		request.MediaType = late.MediaType
		request.Status = bidStatus(late.Cpm)
	}

	return newRecord(EventBidAfterTimeout, EventNameBidAfterTimeout, late)
}

func (a *Adapter) handleBidderDone(raw json.RawMessage) error {
	var args BidderDoneArgs
	if err := decodeArgs(adapter.EventBidderDone, raw, &args); err != nil {
		return err
	}

	auction, err := a.auction(args.AuctionID)
	if err != nil {
		return err
	}

	var errs []error
	for _, bid := range args.Bids {
		code := normalize(bid.AdUnitCode)
		bidder := normalize(bid.Bidder)
		if !a.options.supportsAdUnit(code) {
			continue
		}

		unit, ok := auction.AdUnits[code]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s in auction %s", ErrUnknownAdUnit, code, auction.ID))
			continue
		}
		if unit.finished() {
			continue
		}

		request, ok := unit.Bidders[bidder]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s on %s", ErrUnknownBidder, bidder, code))
			continue
		}
		if request.Status != BidderStatusRequested {
			continue
		}

		request.Finish = a.now()
		request.Status = BidderStatusNoBid
		request.Cpm = 0
	}
	return errors.Join(errs...)
}

func (a *Adapter) handleAuctionEnd(raw json.RawMessage) ([]Record, error) {
	var args AuctionEndArgs
	if err := decodeArgs(adapter.EventAuctionEnd, raw, &args); err != nil {
		return nil, err
	}

	auction, err := a.auction(args.AuctionID)
	if err != nil {
		return nil, err
	}

	// an auction no supported ad unit took part in is not kept
	if len(auction.AdUnits) == 0 {
		a.cache.delete(auction.ID)
	}

	finish := a.now()
	auction.Finish = finish
	for _, unit := range auction.AdUnits {
		unit.Finish = finish
		unit.Status = AuctionStatusFinished

		for _, request := range unit.Bidders {
			if request.Status == BidderStatusRequested {
				request.Status = BidderStatusTimeout
			}
		}
	}

	return []Record{newRecord(EventAuction, EventNameAuction, auction.Clone())}, nil
}

func (a *Adapter) handleBidWon(ctx context.Context, raw json.RawMessage) ([]Record, error) {
	var args BidResponse
	if err := decodeArgs(adapter.EventBidWon, raw, &args); err != nil {
		return nil, err
	}

	code := normalize(args.AdUnitCode)
	if !a.options.supportsAdUnit(code) {
		return nil, nil
	}

	unit, err := a.adUnit(args.AuctionID, code)
	if err != nil {
		return nil, err
	}

	isNew, err := a.tags.isNew(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to check new visitor flag")
	}

	impression := &Impression{
		Auction:   unit.Clone(),
		AdUnit:    code,
		Bidder:    normalize(args.Bidder),
		Cpm:       args.Cpm,
		Size:      Size{Width: args.Width, Height: args.Height},
		MediaType: args.MediaType,
		Source:    orDefault(args.Source, defaultSource),
	}
	if isNew {
		impression.IsNew = 1
	}

	return []Record{newRecord(EventImpression, EventNameImpression, impression)}, nil
}

// handleOtherEvent forwards any other host event as is, named after itself.
func (a *Adapter) handleOtherEvent(ev adapter.Event) []Record {
	var data any
	if len(ev.Args) > 0 {
		data = append(json.RawMessage(nil), ev.Args...)
	}
	return []Record{newRecord(ev.EventType, ev.EventType, data)}
}

func (a *Adapter) auction(id string) (*Auction, error) {
	auction, ok := a.cache.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAuction, id)
	}
	return auction, nil
}

func (a *Adapter) adUnit(auctionID, code string) (*AdUnitAuction, error) {
	auction, err := a.auction(auctionID)
	if err != nil {
		return nil, err
	}

	unit, ok := auction.AdUnits[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s in auction %s", ErrUnknownAdUnit, code, auctionID)
	}
	return unit, nil
}

func bidStatus(cpm float64) string {
	if cpm > 0 {
		return BidderStatusBid
	}
	return BidderStatusNoBid
}
