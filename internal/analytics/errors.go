package analytics

import "errors"

var (
	ErrMissingPublisherID = errors.New(`"options.publisherId" is empty`)
	ErrInvalidOptions     = errors.New("invalid analytics options")
	ErrAlreadyEnabled     = errors.New("analytics adapter already enabled")
	ErrNotEnabled         = errors.New("analytics adapter not enabled")

	ErrInvalidArgs    = errors.New("invalid event args")
	ErrUnknownAuction = errors.New("unknown auction")
	ErrUnknownAdUnit  = errors.New("unknown ad unit")
	ErrUnknownBidder  = errors.New("unknown bidder")
)
