package workmode

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "work_mode_changes"

// Listener bridges the Postgres change feed into the in-process broker. The
// connection is treated as a managed resource: on any failure it reconnects
// with capped exponential backoff and invokes the resync hook so subscribers
// can reload the authoritative config instead of drifting.
type Listener struct {
	Pool    *pgxpool.Pool
	Broker  *Broker
	Resync  func(ctx context.Context)
	MinWait time.Duration
	MaxWait time.Duration
}

func NewListener(pool *pgxpool.Pool, broker *Broker) *Listener {
	return &Listener{
		Pool:    pool,
		Broker:  broker,
		MinWait: time.Second,
		MaxWait: 30 * time.Second,
	}
}

func (l *Listener) Run(ctx context.Context) {
	wait := l.MinWait
	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			wait *= 2
			if wait > l.MaxWait {
				wait = l.MaxWait
			}
		}

		established, err := l.listen(ctx, !first)
		if ctx.Err() != nil {
			return
		}
		if established {
			wait = l.MinWait
		}
		if err != nil {
			slog.Warn("mode channel listener dropped", "err", err)
		}
		first = false
	}
}

func (l *Listener) listen(ctx context.Context, reconnected bool) (bool, error) {
	conn, err := l.Pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return false, err
	}

	if reconnected && l.Resync != nil {
		l.Resync(ctx)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}

		var change ModeChange
		if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
			slog.Warn("mode change payload decode failed", "err", err)
			continue
		}
		l.Broker.Publish(change)
	}
}
