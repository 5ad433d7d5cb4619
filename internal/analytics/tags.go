package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/katatrina/roxot-collector/internal/clock"
	"github.com/katatrina/roxot-collector/internal/storage"
)

// StoragePrefix namespaces every key the adapter writes.
const StoragePrefix = "roxot_analytics_"

const (
	utmTTLKey = "utm_ttl"
	utmTTL    = time.Hour

	isNewKey = "is_new_flag"
	isNewTTL = time.Hour
)

var utmTags = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// visitorTags reads and writes per-visitor values: attribution tags and the
// last-seen stamp behind the new-visitor flag.
type visitorTags struct {
	store storage.Store
	clock clock.Clock
}

func storageKey(key string) string {
	return StoragePrefix + key
}

// utmTagData returns the five utm tags for this page view. Tags found in the
// page URL are persisted; otherwise tags persisted within the last hour are
// reused. Storage errors are returned alongside whatever could be resolved.
func (t visitorTags) utmTagData(ctx context.Context, pageURL string) (map[string]string, error) {
	data := make(map[string]string, len(utmTags))

	var query url.Values
	if u, err := url.Parse(pageURL); err == nil {
		query = u.Query()
	}

	detected := false
	for _, tag := range utmTags {
		value := query.Get(tag)
		if value != "" {
			detected = true
		}
		data[tag] = value
	}

	var errs []error
	if detected {
		for _, tag := range utmTags {
			if err := t.store.Set(ctx, storageKey(tag), data[tag]); err != nil {
				errs = append(errs, err)
			}
		}
		errs = append(errs, t.touchUtm(ctx))
		return data, errors.Join(errs...)
	}

	expired, err := t.utmExpired(ctx)
	if err != nil || expired {
		return data, err
	}

	for _, tag := range utmTags {
		value, _, err := t.store.Get(ctx, storageKey(tag))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data[tag] = value
	}
	errs = append(errs, t.touchUtm(ctx))

	return data, errors.Join(errs...)
}

func (t visitorTags) touchUtm(ctx context.Context) error {
	return t.store.Set(ctx, storageKey(utmTTLKey), t.nowString())
}

func (t visitorTags) utmExpired(ctx context.Context) (bool, error) {
	last, err := t.stamp(ctx, utmTTLKey)
	if err != nil {
		return true, err
	}
	return clock.Millis(t.clock.Now())-last > utmTTL.Milliseconds(), nil
}

// isNew reports whether the visitor was last seen more than an hour ago (or
// never), and records the current visit.
func (t visitorTags) isNew(ctx context.Context) (bool, error) {
	last, err := t.stamp(ctx, isNewKey)
	if err != nil {
		return true, err
	}

	now := clock.Millis(t.clock.Now())
	isNew := now-last > isNewTTL.Milliseconds()
	if err = t.store.Set(ctx, storageKey(isNewKey), strconv.FormatInt(now, 10)); err != nil {
		return isNew, fmt.Errorf("failed to write %s: %w", isNewKey, err)
	}

	return isNew, nil
}

// stamp reads a millisecond timestamp. Missing or unparsable values read as 0.
func (t visitorTags) stamp(ctx context.Context, key string) (int64, error) {
	value, ok, err := t.store.Get(ctx, storageKey(key))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return 0, nil
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, nil
	}
	return ms, nil
}

func (t visitorTags) nowString() string {
	return strconv.FormatInt(clock.Millis(t.clock.Now()), 10)
}
