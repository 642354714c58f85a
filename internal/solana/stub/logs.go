package stub

import (
	"context"
	"sync"

	"holdermap/internal/solana"
)

// Logs implements solana.LogsSubscriber for testing. Notify pushes a
// notification to every live subscription of an address.
type Logs struct {
	mu     sync.Mutex
	subs   map[string][]chan solana.LogNotification
	closed bool

	// Err, when set, is returned by SubscribeLogs.
	Err error
}

// NewLogs creates a new stub logs subscriber.
func NewLogs() *Logs {
	return &Logs{subs: make(map[string][]chan solana.LogNotification)}
}

// SubscribeLogs registers a subscription that ends when ctx is done.
func (l *Logs) SubscribeLogs(ctx context.Context, address string) (<-chan solana.LogNotification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	if l.closed {
		return nil, solana.ErrClientClosed
	}
	ch := make(chan solana.LogNotification, 16)
	l.subs[address] = append(l.subs[address], ch)

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		list := l.subs[address]
		for i, c := range list {
			if c == ch {
				l.subs[address] = append(list[:i], list[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

// Subscribed reports the number of live subscriptions for address.
func (l *Logs) Subscribed(address string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[address])
}

// Notify delivers a notification to the subscriptions of address.
func (l *Logs) Notify(address, signature string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[address] {
		select {
		case ch <- solana.LogNotification{Signature: signature}:
		default:
		}
	}
}

// Close ends every subscription.
func (l *Logs) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for addr, list := range l.subs {
		for _, ch := range list {
			close(ch)
		}
		delete(l.subs, addr)
	}
	return nil
}

var _ solana.LogsSubscriber = (*Logs)(nil)
