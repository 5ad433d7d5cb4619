package analytics

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/katatrina/roxot-collector/internal/clock"
	"github.com/katatrina/roxot-collector/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTags() (visitorTags, *storage.MemoryStore, *clock.Manual) {
	store := storage.NewMemoryStore()
	clk := clock.NewManual(testStart)
	return visitorTags{store: store, clock: clk}, store, clk
}

func TestUtmTagData(t *testing.T) {
	ctx := context.Background()
	tags, store, clk := newTags()

	data, err := tags.utmTagData(ctx, "https://site.example/?utm_source=news&utm_campaign=spring")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"utm_source":   "news",
		"utm_medium":   "",
		"utm_campaign": "spring",
		"utm_term":     "",
		"utm_content":  "",
	}, data)

	stored, ok, err := store.Get(ctx, StoragePrefix+"utm_source")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "news", stored)
	stamp, _, _ := store.Get(ctx, StoragePrefix+utmTTLKey)
	assert.Equal(t, strconv.FormatInt(testStart.UnixMilli(), 10), stamp)

	// a page without tags within the hour reuses the stored ones
	clk.Advance(45 * time.Minute)
	data, err = tags.utmTagData(ctx, "https://site.example/other")
	require.NoError(t, err)
	assert.Equal(t, "news", data["utm_source"])
	assert.Equal(t, "spring", data["utm_campaign"])

	// reuse refreshes the window
	clk.Advance(45 * time.Minute)
	data, err = tags.utmTagData(ctx, "https://site.example/third")
	require.NoError(t, err)
	assert.Equal(t, "news", data["utm_source"])

	// past the window the stored tags are bypassed but not purged
	clk.Advance(61 * time.Minute)
	data, err = tags.utmTagData(ctx, "https://site.example/fourth")
	require.NoError(t, err)
	assert.Equal(t, "", data["utm_source"])
	stored, _, _ = store.Get(ctx, StoragePrefix+"utm_source")
	assert.Equal(t, "news", stored)
}

func TestUtmTagData_NewTagsReplaceStored(t *testing.T) {
	ctx := context.Background()
	tags, _, clk := newTags()

	_, err := tags.utmTagData(ctx, "https://site.example/?utm_source=a&utm_medium=b")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	data, err := tags.utmTagData(ctx, "https://site.example/?utm_term=c")
	require.NoError(t, err)
	assert.Equal(t, "", data["utm_source"])
	assert.Equal(t, "c", data["utm_term"])

	clk.Advance(time.Minute)
	data, err = tags.utmTagData(ctx, "https://site.example/")
	require.NoError(t, err)
	assert.Equal(t, "", data["utm_medium"], "empty tags were persisted too")
	assert.Equal(t, "c", data["utm_term"])
}

func TestUtmTagData_NoPageURL(t *testing.T) {
	tags, store, _ := newTags()

	data, err := tags.utmTagData(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, data, len(utmTags))
	assert.Zero(t, store.Len(), "nothing persisted without tags or a live window")
}

func TestIsNew(t *testing.T) {
	ctx := context.Background()
	tags, store, clk := newTags()

	isNew, err := tags.isNew(ctx)
	require.NoError(t, err)
	assert.True(t, isNew, "never seen")

	clk.Advance(59 * time.Minute)
	isNew, err = tags.isNew(ctx)
	require.NoError(t, err)
	assert.False(t, isNew)

	clk.Advance(61 * time.Minute)
	isNew, err = tags.isNew(ctx)
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, store.Set(ctx, StoragePrefix+isNewKey, "garbage"))
	isNew, err = tags.isNew(ctx)
	require.NoError(t, err)
	assert.True(t, isNew, "unreadable stamp counts as never seen")
}
