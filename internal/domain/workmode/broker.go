package workmode

import "sync"

// Broker fans mode changes out to in-process subscribers, keyed by company.
// Sends never block: a subscriber that cannot keep up drops changes and is
// expected to reconcile with a config reload.
type Broker struct {
	mu     sync.Mutex
	subs   map[string][]*Subscription
	closed bool
}

// Subscription channels are only ever closed under the broker mutex, the
// same lock Publish sends under, so a close can never race a send.
type Subscription struct {
	C chan ModeChange

	broker    *Broker
	companyID string
	closed    bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*Subscription)}
}

func (b *Broker) Subscribe(companyID string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 8
	}
	sub := &Subscription{
		C:         make(chan ModeChange, buffer),
		broker:    b,
		companyID: companyID,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.closed = true
		close(sub.C)
		return sub
	}
	b.subs[companyID] = append(b.subs[companyID], sub)
	return sub
}

func (b *Broker) Publish(change ModeChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[change.CompanyID] {
		select {
		case sub.C <- change:
		default:
		}
	}
}

func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, list := range b.subs {
		for _, sub := range list {
			if !sub.closed {
				sub.closed = true
				close(sub.C)
			}
		}
	}
	b.subs = nil
}

// Close detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Close() {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if !b.closed {
		list := b.subs[s.companyID]
		for i, sub := range list {
			if sub == s {
				b.subs[s.companyID] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	close(s.C)
}
