package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/katatrina/roxot-collector/internal/delivery"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/metric"
	"github.com/katatrina/roxot-collector/internal/scheduler"
	"github.com/rs/zerolog"
)

// DefaultFlushDelay is how long records wait for the publisher config
// before the queue is checked again.
const DefaultFlushDelay = time.Second

type requestBuilder func(rec Record, cfg delivery.ServerConfig) (delivery.EventRequest, error)

// dispatcher owns the output queue of one session. Records leave the queue
// in the order they were enqueued, and only once the publisher config is
// known.
type dispatcher struct {
	mu          sync.Mutex
	queue       []Record
	config      delivery.ServerConfig // nil until loaded
	cancelTimer func()
	closed      bool

	// flushMu serialises drain and send so batches go out in queue order.
	flushMu sync.Mutex

	delay     time.Duration
	maxQueue  int
	scheduler scheduler.Scheduler
	sender    delivery.Sender
	build     requestBuilder
	metrics   *metric.Metrics
	tap       event.EventSender
	topic     string
	logger    zerolog.Logger
}

func (d *dispatcher) enqueue(records ...Record) (flushNow bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(records) == 0 {
		return false
	}

	for _, rec := range records {
		d.queue = append(d.queue, rec)
		d.metrics.RecordsQueued.Inc()
		d.logger.Info().Str("event", rec.EventType).Str("event_name", rec.EventName).
			Str("record_id", rec.ID.String()).Msg("register event")
	}

	if d.maxQueue > 0 && len(d.queue) > d.maxQueue {
		evicted := len(d.queue) - d.maxQueue
		d.queue = append([]Record(nil), d.queue[evicted:]...)
		d.metrics.RecordsEvicted.Add(float64(evicted))
		d.logger.Warn().Int("evicted", evicted).Int("max_queue_size", d.maxQueue).
			Msg("output queue full, oldest records evicted")
	}

	if d.config == nil {
		d.armLocked()
		return false
	}
	return true
}

// armLocked starts the debounce timer unless one is already armed.
func (d *dispatcher) armLocked() {
	if d.cancelTimer != nil || d.closed {
		return
	}

	cancel, err := d.scheduler.AfterFunc(d.delay, d.onTimer)
	if err != nil {
		// the next enqueue tries again
		d.logger.Error().Err(err).Msg("failed to arm flush timer")
		return
	}
	d.cancelTimer = cancel
}

func (d *dispatcher) onTimer() {
	d.mu.Lock()
	d.cancelTimer = nil
	d.mu.Unlock()

	d.flush()
}

// flush sends every queued record the config enables. Without a config it
// re-arms the timer and leaves the queue alone.
func (d *dispatcher) flush() {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	if d.cancelTimer != nil {
		d.cancelTimer()
		d.cancelTimer = nil
	}
	if d.config == nil {
		d.armLocked()
		d.mu.Unlock()
		return
	}
	batch := d.queue
	d.queue = nil
	cfg := d.config
	d.mu.Unlock()

	for _, rec := range batch {
		if !cfg.Enabled(rec.EventType) {
			d.logger.Info().Str("event", rec.EventType).Str("record_id", rec.ID.String()).
				Msgf("skip event %s", rec.EventName)
			d.metrics.RecordsSkipped.WithLabelValues(metricLabel(rec.EventType)).Inc()
			d.broadcast(event.EventTypeRecordSkipped, rec)
			continue
		}
		d.send(rec, cfg)
	}
}

func (d *dispatcher) send(rec Record, cfg delivery.ServerConfig) {
	request, err := d.build(rec, cfg)
	if err != nil {
		d.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("failed to encode record")
		d.metrics.DeliveryErrors.Inc()
		return
	}

	if err = d.sender.SendEvent(context.Background(), request); err != nil {
		d.logger.Error().Err(err).Str("event", rec.EventType).Str("record_id", rec.ID.String()).
			Msg("failed to send event")
		d.metrics.DeliveryErrors.Inc()
		d.broadcast(event.EventTypeDeliveryFailed, rec)
		return
	}

	d.logger.Info().Str("event", rec.EventType).Str("record_id", rec.ID.String()).
		Msgf("%s sent", rec.EventName)
	d.metrics.RecordsSent.WithLabelValues(metricLabel(rec.EventType)).Inc()
	d.broadcast(event.EventTypeRecordDelivered, rec)
}

func (d *dispatcher) broadcast(eventType string, rec Record) {
	if d.tap == nil {
		return
	}
	d.tap.Broadcast(event.Event{
		Topic: d.topic,
		Type:  eventType,
		Data:  rec,
	})
}

func (d *dispatcher) setConfig(cfg delivery.ServerConfig) {
	d.mu.Lock()
	d.config = cfg
	d.mu.Unlock()
}

func (d *dispatcher) serverConfig() delivery.ServerConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config.Clone()
}

func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// close cancels the timer and flushes once more when the config is known.
// It returns how many records were left undelivered.
func (d *dispatcher) close() int {
	d.mu.Lock()
	d.closed = true
	if d.cancelTimer != nil {
		d.cancelTimer()
		d.cancelTimer = nil
	}
	loaded := d.config != nil
	d.mu.Unlock()

	if loaded {
		d.flush()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	dropped := len(d.queue)
	d.queue = nil
	return dropped
}
