package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAdapter struct{}

func (nopAdapter) Enable(context.Context, EnableRequest) error { return nil }
func (nopAdapter) Track(context.Context, Event) error          { return nil }
func (nopAdapter) Disable(context.Context) error               { return nil }
func (nopAdapter) Options() any                                { return nil }

func nopFactory(Deps) Adapter { return nopAdapter{} }

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("b", nopFactory))
	require.NoError(t, r.Register("a", nopFactory))

	err := r.Register("a", nopFactory)
	assert.ErrorIs(t, err, ErrDuplicateCode)

	factory, err := r.Lookup("a")
	require.NoError(t, err)
	assert.NotNil(t, factory(Deps{}))

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownCode)

	assert.Equal(t, []string{"a", "b"}, r.Codes())
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("x", nopFactory)

	assert.Panics(t, func() { r.MustRegister("x", nopFactory) })
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventAuctionEnd, map[string]string{"auctionId": "a1"})
	require.NoError(t, err)

	assert.Equal(t, EventAuctionEnd, ev.EventType)
	assert.JSONEq(t, `{"auctionId":"a1"}`, string(ev.Args))
}
