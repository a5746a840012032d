package workmode

import (
	"sync"
	"testing"
)

func TestBrokerDeliversToCompanySubscribers(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	a := broker.Subscribe("company-1", 4)
	b := broker.Subscribe("company-1", 4)
	other := broker.Subscribe("company-2", 4)

	broker.Publish(ModeChange{CompanyID: "company-1", Mode: ModeWorking, Version: 1})

	for _, sub := range []*Subscription{a, b} {
		select {
		case change := <-sub.C:
			if change.Mode != ModeWorking {
				t.Fatalf("unexpected change: %+v", change)
			}
		default:
			t.Fatal("subscriber did not receive the change")
		}
	}
	select {
	case change := <-other.C:
		t.Fatalf("cross-company delivery: %+v", change)
	default:
	}
}

func TestBrokerPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	sub := broker.Subscribe("company-1", 1)
	broker.Publish(ModeChange{CompanyID: "company-1", Mode: ModeWorking, Version: 1})
	broker.Publish(ModeChange{CompanyID: "company-1", Mode: ModeBreak, Version: 2}) // dropped

	change := <-sub.C
	if change.Version != 1 {
		t.Fatalf("expected first change, got version %d", change.Version)
	}
	select {
	case extra := <-sub.C:
		t.Fatalf("expected overflow to be dropped, got %+v", extra)
	default:
	}
}

func TestBrokerPublishRacesSubscriptionClose(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	// Publishers hammer the company feed while subscriptions come and go.
	// A send on a closed channel would panic and fail the run.
	stop := make(chan struct{})
	var publishers sync.WaitGroup
	for i := 0; i < 4; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					broker.Publish(ModeChange{CompanyID: "company-1", Mode: ModeWorking, Version: 1})
				}
			}
		}()
	}

	var churn sync.WaitGroup
	for i := 0; i < 200; i++ {
		churn.Add(1)
		go func() {
			defer churn.Done()
			for j := 0; j < 50; j++ {
				sub := broker.Subscribe("company-1", 1)
				sub.Close()
			}
		}()
	}
	churn.Wait()

	close(stop)
	publishers.Wait()
}

func TestBrokerCloseIsIdempotent(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("company-1", 1)

	sub.Close()
	sub.Close()
	broker.Close()
	broker.Close()

	if _, ok := <-sub.C; ok {
		t.Fatal("expected channel to be closed")
	}

	// Subscribing after close yields an already-closed subscription.
	late := broker.Subscribe("company-1", 1)
	if _, ok := <-late.C; ok {
		t.Fatal("expected late subscription to be closed")
	}
}
