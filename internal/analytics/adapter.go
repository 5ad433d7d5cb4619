package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/katatrina/roxot-collector/internal/adapter"
	"github.com/katatrina/roxot-collector/internal/clock"
	"github.com/katatrina/roxot-collector/internal/delivery"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/metric"
	"github.com/katatrina/roxot-collector/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Code is the code the adapter is registered under.
const Code = "roxot"

func init() {
	adapter.Default.MustRegister(Code, Factory)
}

// Factory builds a disabled adapter session.
func Factory(deps adapter.Deps) adapter.Adapter {
	return New(deps)
}

// Adapter is one analytics session: the auction cache, the output queue and
// the effective options of one enabled page.
type Adapter struct {
	deps   adapter.Deps
	tags   visitorTags
	logger zerolog.Logger

	mu           sync.Mutex
	enabled      bool
	options      Options
	cache        *auctionCache
	dispatcher   *dispatcher
	configLoaded chan struct{}
	cancelLoad   context.CancelFunc
}

// New creates a disabled session. Store, Clock and Metrics fall back to
// in-process defaults when unset.
func New(deps adapter.Deps) *Adapter {
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	if deps.Metrics == nil {
		deps.Metrics, _ = metric.NewMetrics(prometheus.NewRegistry())
	}

	return &Adapter{
		deps: deps,
		tags: visitorTags{store: deps.Store, clock: deps.Clock},
		logger: log.With().
			Str("adapter", Code).
			Str("session", deps.SessionID).
			Logger(),
		cache: newAuctionCache(deps.Settings.AuctionTTL),
	}
}

// Enable validates the page options and starts loading the publisher config
// in the background. Events may be tracked before the config arrives.
func (a *Adapter) Enable(ctx context.Context, req adapter.EnableRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled {
		return ErrAlreadyEnabled
	}

	initOpts, verbatim, err := parseInitOptions(req.Options)
	if err != nil {
		a.logger.Error().Err(err).Msg("invalid analytics options")
		return err
	}

	publisherID := initOpts.publisherID()
	if publisherID == "" {
		a.logger.Error().Err(ErrMissingPublisherID).Msg("analytics adapter not enabled")
		return ErrMissingPublisherID
	}

	adUnits := make([]string, 0, len(initOpts.AdUnits))
	for _, code := range initOpts.AdUnits {
		adUnits = append(adUnits, normalize(code))
	}

	server := orDefault(initOpts.Server, orDefault(a.deps.Settings.EventServer, DefaultEventServer))
	configServer := orDefault(initOpts.ConfigServer,
		orDefault(initOpts.Server, orDefault(a.deps.Settings.ConfigServer, DefaultConfigServer)))

	utmTagData, err := a.tags.utmTagData(ctx, req.PageURL)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to persist utm tags")
	}

	opts := Options{
		Options:      verbatim,
		PublisherID:  publisherID,
		AdUnits:      adUnits,
		Server:       server,
		ConfigServer: configServer,
		UtmTagData:   utmTagData,
		Host:         orDefault(initOpts.Host, hostname(req.PageURL)),
		Device:       detectDevice(req.UserAgent),
	}

	a.options = opts
	a.cache = newAuctionCache(a.deps.Settings.AuctionTTL)
	a.dispatcher = a.newDispatcher(opts)
	a.configLoaded = make(chan struct{})

	loadCtx, cancel := context.WithCancel(context.Background())
	a.cancelLoad = cancel
	go a.loadServerConfig(loadCtx, a.dispatcher, a.configLoaded, delivery.ConfigRequest{
		ConfigServer: opts.ConfigServer,
		PublisherID:  opts.PublisherID,
		Host:         opts.Host,
	})

	a.enabled = true
	a.logger.Info().Str("publisher_id", opts.PublisherID).Str("host", opts.Host).
		Strs("ad_units", opts.AdUnits).Str("device", opts.Device).Msg("analytics adapter enabled")
	return nil
}

func (a *Adapter) newDispatcher(opts Options) *dispatcher {
	delay := a.deps.Settings.FlushDelay
	if delay <= 0 {
		delay = DefaultFlushDelay
	}

	return &dispatcher{
		delay:     delay,
		maxQueue:  a.deps.Settings.MaxQueueSize,
		scheduler: a.deps.Scheduler,
		sender:    a.deps.Sender,
		build:     requestBuilderFor(opts),
		metrics:   a.deps.Metrics,
		tap:       a.deps.Tap,
		topic:     event.PublisherTopic(opts.PublisherID),
		logger:    a.logger,
	}
}

// Track applies one host event. Records it produces are queued in the order
// events are tracked.
func (a *Adapter) Track(ctx context.Context, ev adapter.Event) error {
	a.mu.Lock()
	if !a.enabled {
		a.mu.Unlock()
		return ErrNotEnabled
	}

	records, err := a.handle(ctx, ev)
	d := a.dispatcher
	flushNow := d.enqueue(records...)
	a.mu.Unlock()

	a.deps.Metrics.EventsTracked.WithLabelValues(metricLabel(ev.EventType)).Inc()

	if flushNow {
		d.flush()
	}
	if err != nil {
		return fmt.Errorf("failed to track %s: %w", ev.EventType, err)
	}
	return nil
}

// Disable stops the flush timer and delivers what is left when the publisher
// config is known. Records still waiting for the config are dropped.
func (a *Adapter) Disable(_ context.Context) error {
	a.mu.Lock()
	if !a.enabled {
		a.mu.Unlock()
		return ErrNotEnabled
	}
	a.enabled = false
	d := a.dispatcher
	cancel := a.cancelLoad
	a.mu.Unlock()

	dropped := d.close()
	cancel()

	logEvent := a.logger.Info()
	if dropped > 0 {
		logEvent = a.logger.Warn()
	}
	logEvent.Int("dropped", dropped).Msg("analytics adapter disabled")
	return nil
}

// Options returns a copy of the effective options, including the publisher
// config once loaded.
func (a *Adapter) Options() any {
	a.mu.Lock()
	defer a.mu.Unlock()

	opts := a.options.Clone()
	if a.dispatcher != nil {
		opts.ServerConfig = a.dispatcher.serverConfig()
	}
	return opts
}

// ConfigLoaded is closed once the publisher config (or its fallback) is in
// place. It is nil before Enable.
func (a *Adapter) ConfigLoaded() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configLoaded
}

// Auction returns a copy of a cached auction.
func (a *Adapter) Auction(id string) (*Auction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	auction, ok := a.cache.get(id)
	return auction.Clone(), ok
}

// Pending reports how many records wait in the output queue.
func (a *Adapter) Pending() int {
	a.mu.Lock()
	d := a.dispatcher
	a.mu.Unlock()

	if d == nil {
		return 0
	}
	return d.pending()
}

func (a *Adapter) now() int64 {
	return clock.Millis(a.deps.Clock.Now())
}

type eventBody struct {
	Event     string  `json:"event"`
	EventName string  `json:"eventName"`
	Options   Options `json:"options"`
	Data      any     `json:"data"`
}

// requestBuilderFor captures the options of one enable so records keep the
// options they were produced under.
func requestBuilderFor(opts Options) requestBuilder {
	return func(rec Record, cfg delivery.ServerConfig) (delivery.EventRequest, error) {
		echo := opts
		echo.ServerConfig = cfg

		body, err := json.Marshal(eventBody{
			Event:     rec.EventType,
			EventName: rec.EventName,
			Options:   echo,
			Data:      rec.Data,
		})
		if err != nil {
			return delivery.EventRequest{}, fmt.Errorf("failed to encode %s record: %w", rec.EventType, err)
		}

		return delivery.EventRequest{
			Server:      opts.Server,
			EventType:   rec.EventType,
			PublisherID: opts.PublisherID,
			Host:        opts.Host,
			Body:        body,
		}, nil
	}
}
