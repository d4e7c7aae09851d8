package dispatcher

import (
	"errors"
	"log/slog"
	"time"

	"knnect-svr/internal/codec"
	"knnect-svr/internal/observability"
	"knnect-svr/internal/pipeline"
)

// RawStore persists unmodified tracker records and last-known state.
// Both calls are fire-and-forget; persistence never gates the live feed.
type RawStore interface {
	Append(raw []byte, receivedAt time.Time)
	SaveLastKnown(deviceID string, feature []byte)
}

// Publisher fans one Feature out to the currently registered subscribers.
type Publisher interface {
	Publish(f *pipeline.Feature)
}

type Dispatcher struct {
	store RawStore
	pub   Publisher
	log   *slog.Logger
}

func New(store RawStore, pub Publisher, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store: store,
		pub:   pub,
		log:   log.With("component", "dispatcher"),
	}
}

// ProcessIncoming handles one framed record: persist the raw bytes, decode,
// and on success broadcast the Feature. The returned error is one of the
// codec taxonomy values, for the caller to log; it never means the
// connection should be torn down.
func (d *Dispatcher) ProcessIncoming(raw []byte, receivedAt time.Time) error {
	d.store.Append(raw, receivedAt)
	observability.RecordsReceived.Inc()

	start := time.Now()
	fix, err := codec.ParseRecord(raw)
	observability.ObserveParseLatency(start)
	if err != nil {
		observability.ParseErrors.WithLabelValues(parseReason(err)).Inc()
		return err
	}

	feature := pipeline.BuildFeature(fix)
	if b, jsonErr := feature.JSON(); jsonErr == nil {
		d.store.SaveLastKnown(fix.DeviceID, b)
	}
	d.pub.Publish(feature)

	d.log.Debug("record processed", "imei", fix.DeviceID,
		"lat", fix.Lat, "lon", fix.Lon, "status", fix.Status)
	return nil
}

func parseReason(err error) string {
	switch {
	case errors.Is(err, codec.ErrUnsupportedSentence):
		return "unsupported"
	case errors.Is(err, codec.ErrMissingDeviceID):
		return "missing_device_id"
	case errors.Is(err, codec.ErrInvalidCoordinates):
		return "invalid_coordinates"
	default:
		return "malformed"
	}
}
