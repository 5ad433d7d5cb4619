package analytics

import "time"

// DefaultAuctionTTL is how long an auction stays cached after it was received.
const DefaultAuctionTTL = time.Hour

// auctionCache maps auction ids to auctions. It is not safe for concurrent
// use; the adapter's state mutex guards it.
type auctionCache struct {
	auctions map[string]*Auction
	ttl      int64 // milliseconds
}

func newAuctionCache(ttl time.Duration) *auctionCache {
	if ttl <= 0 {
		ttl = DefaultAuctionTTL
	}
	return &auctionCache{
		auctions: make(map[string]*Auction),
		ttl:      ttl.Milliseconds(),
	}
}

func (c *auctionCache) get(id string) (*Auction, bool) {
	auction, ok := c.auctions[id]
	return auction, ok
}

func (c *auctionCache) put(auction *Auction) {
	c.auctions[auction.ID] = auction
}

func (c *auctionCache) delete(id string) {
	delete(c.auctions, id)
}

// prune drops every auction received more than ttl before now.
func (c *auctionCache) prune(now int64) int {
	var pruned int
	for id, auction := range c.auctions {
		if now-auction.received > c.ttl {
			delete(c.auctions, id)
			pruned++
		}
	}
	return pruned
}

func (c *auctionCache) len() int {
	return len(c.auctions)
}
