package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"holdermap/internal/solana"
)

// DefaultWatchDebounce is the quiet period between provider activity and
// the refresh it triggers.
const DefaultWatchDebounce = 15 * time.Second

// Watcher refreshes the published token when the provider reports new
// transactions mentioning its mint. Bursts of activity within the debounce
// window collapse into one refresh.
type Watcher struct {
	store    *Store
	logs     solana.LogsSubscriber
	debounce time.Duration
	logger   zerolog.Logger
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultWatchDebounce.
func NewWatcher(store *Store, logs solana.LogsSubscriber, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		store:    store,
		logs:     logs,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// Run follows the store until ctx is done or the store closes.
func (w *Watcher) Run(ctx context.Context) error {
	states, unsubscribe := w.store.Subscribe()
	defer unsubscribe()

	var (
		mint     string
		stopSub  context.CancelFunc = func() {}
		activity <-chan solana.LogNotification
		timer    *time.Timer
		fire     <-chan time.Time
	)
	defer func() { stopSub() }()

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		fire = nil
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return ctx.Err()

		case st, ok := <-states:
			if !ok {
				stopTimer()
				return nil
			}
			next := ""
			if st.TokenData != nil {
				next = st.TokenData.Address
			}
			if next == mint {
				continue
			}
			stopSub()
			stopSub, activity = func() {}, nil
			stopTimer()
			mint = next
			if mint == "" {
				continue
			}

			subCtx, cancel := context.WithCancel(ctx)
			ch, err := w.logs.SubscribeLogs(subCtx, mint)
			if err != nil {
				cancel()
				w.logger.Warn().Err(err).Str("mint", mint).Msg("failed to watch token")
				continue
			}
			stopSub, activity = cancel, ch
			w.logger.Debug().Str("mint", mint).Msg("watching token")

		case n, ok := <-activity:
			if !ok {
				activity = nil
				continue
			}
			if fire == nil {
				w.logger.Debug().Str("mint", mint).Str("signature", n.Signature).Msg("token activity")
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			err := w.store.Refresh(ctx, mint)
			switch {
			case err == nil:
				w.logger.Info().Str("mint", mint).Msg("token refreshed")
			case errors.Is(err, ErrRefreshSkipped), errors.Is(err, ErrSuperseded):
			default:
				w.logger.Warn().Err(err).Str("mint", mint).Msg("token refresh failed")
			}
		}
	}
}
