package solana

import "context"

// LogsSubscriber streams transaction log notifications from the provider's
// websocket endpoint.
type LogsSubscriber interface {
	// SubscribeLogs streams notifications for transactions mentioning
	// address. The channel is closed when ctx is done or the client closes.
	SubscribeLogs(ctx context.Context, address string) (<-chan LogNotification, error)

	// Close closes the websocket connection.
	Close() error
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      int64
	Failed    bool
}
