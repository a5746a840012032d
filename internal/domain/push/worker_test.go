package push

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
)

type fakeSubs struct {
	mu     sync.Mutex
	subs   []Subscription
	pruned []string
}

func (f *fakeSubs) ListByCompany(ctx context.Context, companyID string) ([]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Subscription(nil), f.subs...), nil
}

func (f *fakeSubs) Prune(ctx context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, endpoint)
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	sent     []string
}

func (f *fakeSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub.Endpoint)
	status := http.StatusCreated
	if s, ok := f.statuses[sub.Endpoint]; ok {
		status = s
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func TestDeliverPrunesGoneEndpoints(t *testing.T) {
	subs := &fakeSubs{subs: []Subscription{
		{UserID: "u1", Endpoint: "https://push.example/alive", P256dh: "k", Auth: "a"},
		{UserID: "u2", Endpoint: "https://push.example/gone", P256dh: "k", Auth: "a"},
	}}
	sender := &fakeSender{statuses: map[string]int{"https://push.example/gone": http.StatusGone}}

	pool := NewWorkerPool(1, subs, webpush.Options{})
	pool.SetSender(sender)

	pool.deliver(context.Background(), job{companyID: "company-1", payload: []byte(`{}`)})

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sent))
	}
	if len(subs.pruned) != 1 || subs.pruned[0] != "https://push.example/gone" {
		t.Fatalf("expected gone endpoint pruned, got %v", subs.pruned)
	}
}

func TestDispatchFansOutThroughWorkers(t *testing.T) {
	subs := &fakeSubs{subs: []Subscription{
		{UserID: "u1", Endpoint: "https://push.example/one", P256dh: "k", Auth: "a"},
	}}
	sender := &fakeSender{}

	pool := NewWorkerPool(2, subs, webpush.Options{})
	pool.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Dispatch("company-1", []byte(`{"mode":"break"}`))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sender.mu.Lock()
		delivered := len(sender.sent)
		sender.mu.Unlock()
		if delivered == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("dispatch was not delivered in time")
}
