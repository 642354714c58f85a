package tokenstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holdermap/internal/domain"
	"holdermap/internal/observability"
	"holdermap/internal/solana"
	"holdermap/internal/storage"
)

// HolderSource enumerates the holders of a mint, largest first.
type HolderSource interface {
	Holders(ctx context.Context, mint string) ([]domain.Holder, error)
}

// Linker fills holder connections.
type Linker interface {
	Link(ctx context.Context, holders []domain.Holder) ([]domain.Holder, error)
}

// persistTimeout bounds recent-search and snapshot writes.
const persistTimeout = 5 * time.Second

// Store owns the token-exploration state and the fetch workflow.
// State transitions are serialized under mu; subscribers receive copies.
type Store struct {
	holders  HolderSource
	metadata solana.MetadataFetcher
	logger   zerolog.Logger

	linker    Linker
	snapshots storage.SnapshotStore
	recent    storage.RecentSearchStore
	timeout   time.Duration
	now       func() time.Time

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	subs   map[int]chan State
	nextID int
}

// Option configures Store.
type Option func(*Store)

// WithLinker enables connection linking of fetched holders.
func WithLinker(l Linker) Option {
	return func(s *Store) {
		s.linker = l
	}
}

// WithSnapshotStore records a snapshot after every successful fetch.
func WithSnapshotStore(ss storage.SnapshotStore) Option {
	return func(s *Store) {
		s.snapshots = ss
	}
}

// WithRecentSearchStore persists recent searches under storage.RecentSearchKey.
func WithRecentSearchStore(rs storage.RecentSearchStore) Option {
	return func(s *Store) {
		s.recent = rs
	}
}

// WithTimeout bounds a whole fetch. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithClock overrides the time source used for snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store.
func New(h HolderSource, meta solana.MetadataFetcher, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		holders:  h,
		metadata: meta,
		logger:   logger.With().Str("component", "tokenstore").Logger(),
		now:      time.Now,
		state:    State{RecentSearches: []string{}},
		subs:     make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel receiving every published state and a function
// that unsubscribes and closes the channel. The current state is delivered
// first. A slow subscriber only sees the latest state.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state.clone()
	observability.SetWSSubscribers(len(s.subs))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; !ok {
				return
			}
			delete(s.subs, id)
			close(ch)
			observability.SetWSSubscribers(len(s.subs))
		})
	}
}

// publishLocked delivers the current state to subscribers. Caller holds mu.
func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		snap := s.state.clone()
		select {
		case ch <- snap:
		default:
			// Replace the stale pending state.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// update applies fn to the state and publishes the result.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.publishLocked()
}

// SetMintAddress sets the mint address without fetching.
func (s *Store) SetMintAddress(address string) {
	s.update(func(st *State) {
		st.MintAddress = address
	})
}

// ClearError clears the pending error message.
func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
	})
}

// ClearTokenData resets token data, mint address and error.
func (s *Store) ClearTokenData() {
	s.update(func(st *State) {
		st.TokenData = nil
		st.MintAddress = ""
		st.Error = ""
	})
}

// AddToRecentSearches moves address to the front of the history.
func (s *Store) AddToRecentSearches(address string) {
	if address == "" {
		return
	}
	var list []string
	s.update(func(st *State) {
		st.RecentSearches = prependRecent(st.RecentSearches, address)
		list = append([]string{}, st.RecentSearches...)
	})
	s.persistRecent(list)
}

// RemoveFromRecentSearches removes address from the history.
func (s *Store) RemoveFromRecentSearches(address string) {
	var list []string
	s.update(func(st *State) {
		st.RecentSearches = removeRecent(st.RecentSearches, address)
		list = append([]string{}, st.RecentSearches...)
	})
	s.persistRecent(list)
}

// Restore loads persisted recent searches. A missing entry is not an error.
func (s *Store) Restore(ctx context.Context) error {
	if s.recent == nil {
		return nil
	}
	list, err := s.recent.Load(ctx, storage.RecentSearchKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	list = normalizeRecent(list)
	s.update(func(st *State) {
		st.RecentSearches = list
	})
	observability.SetRecentSearches(len(list))
	s.logger.Info().Int("recent_searches", len(list)).Msg("restored recent searches")
	return nil
}

func (s *Store) persistRecent(list []string) {
	observability.SetRecentSearches(len(list))
	if s.recent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.recent.Save(ctx, storage.RecentSearchKey, list); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist recent searches")
	}
}

// Close cancels any in-flight fetch and closes every subscription.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	observability.SetWSSubscribers(0)
}
