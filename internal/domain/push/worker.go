package push

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// Sender abstracts the web-push delivery so tests can inject a fake.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webPushSender struct{}

func (webPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type job struct {
	companyID string
	payload   []byte
}

// SubscriptionSource lists the delivery targets for a company.
type SubscriptionSource interface {
	ListByCompany(ctx context.Context, companyID string) ([]Subscription, error)
	Prune(ctx context.Context, endpoint string) error
}

// WorkerPool fans company-wide events out to browser push subscriptions.
// Dispatch is non-blocking; a full queue drops the event, which is acceptable
// for informational pushes since clients reconcile via the stream.
type WorkerPool struct {
	size    int
	jobs    chan job
	subs    SubscriptionSource
	options webpush.Options
	sender  Sender
}

func NewWorkerPool(size int, subs SubscriptionSource, options webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan job, size*8),
		subs:    subs,
		options: options,
		sender:  webPushSender{},
	}
}

// SetSender replaces the delivery implementation (tests).
func (wp *WorkerPool) SetSender(sender Sender) {
	wp.sender = sender
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx)
	}
}

func (wp *WorkerPool) Dispatch(companyID string, payload []byte) {
	select {
	case wp.jobs <- job{companyID: companyID, payload: payload}:
	default:
		slog.Warn("push queue full, event dropped", "companyId", companyID)
	}
}

func (wp *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-wp.jobs:
			wp.deliver(ctx, j)
		}
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, j job) {
	subs, err := wp.subs.ListByCompany(ctx, j.companyID)
	if err != nil {
		slog.Warn("push subscription lookup failed", "companyId", j.companyID, "err", err)
		return
	}

	for _, sub := range subs {
		target := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}
		resp, err := wp.sender.Send(j.payload, target, &wp.options)
		if err != nil {
			slog.Warn("push send failed", "endpoint", sub.Endpoint, "err", err)
			continue
		}
		if resp != nil {
			_ = resp.Body.Close()
			// Gone endpoints are pruned so the registry does not grow stale.
			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
				if err := wp.subs.Prune(ctx, sub.Endpoint); err != nil {
					slog.Warn("push subscription prune failed", "endpoint", sub.Endpoint, "err", err)
				}
			}
		}
	}
}
