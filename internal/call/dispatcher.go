package call

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/call-signaling/internal/models"
)

// signalSink consumes polled signals; satisfied by *PeerSession.
type signalSink interface {
	Dispatch(ctx context.Context, sig models.SignalMessage) error
}

// Dispatcher turns the poll-only transport into a pseudo-channel: it lists
// the room's signals on a timer and feeds them to the session in arrival
// order. The at-most-once guarantee lives in the session's processed set,
// which shares the session's lifetime: a fresh session always gets a fresh
// dispatcher.
type Dispatcher struct {
	transport Transport
	sink      signalSink
	roomID    string
	limit     int
	interval  time.Duration
	logger    zerolog.Logger
}

func NewDispatcher(transport Transport, sink signalSink, roomID string, limit int, interval time.Duration) *Dispatcher {
	if limit <= 0 {
		limit = 120
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		transport: transport,
		sink:      sink,
		roomID:    roomID,
		limit:     limit,
		interval:  interval,
		logger:    log.With().Str("room_id", roomID).Logger(),
	}
}

// Run polls until ctx is cancelled or the session is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Poll(ctx); errors.Is(err, ErrSessionClosed) {
				return
			}
		}
	}
}

// Poll fetches the room's signals once and dispatches the new ones. A
// malformed signal is skipped with no effect on the ones after it.
func (d *Dispatcher) Poll(ctx context.Context) error {
	signals, err := d.transport.List(ctx, d.roomID, d.limit)
	if err != nil {
		d.logger.Warn().Err(err).Msg("signal poll failed")
		return nil
	}

	for _, sig := range signals {
		err := d.sink.Dispatch(ctx, sig)
		switch {
		case err == nil:
		case errors.Is(err, ErrSessionClosed):
			return err
		case errors.Is(err, ErrMalformedSignal):
			d.logger.Debug().Str("signal_id", sig.ID).Msg("skipping malformed signal")
		default:
			d.logger.Warn().Err(err).Str("signal_id", sig.ID).Msg("signal dispatch failed")
		}
	}
	return nil
}
