package tokenstore

import (
	"context"
	"errors"
	"time"

	"holdermap/internal/domain"
	"holdermap/internal/holders"
	"holdermap/internal/observability"
	"holdermap/internal/solana"
)

// ValidateAddress checks that address is a base58 32-byte key.
func ValidateAddress(address string) error {
	if len(address) < MinAddressLength {
		return ErrInvalidAddress
	}
	if _, err := solana.DecodePublicKey(address); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

// FetchTokenData fetches holders and metadata for address and publishes the
// result. Issuing a new fetch cancels the one in flight; only the latest
// fetch publishes. The returned error matches the published message.
func (s *Store) FetchTokenData(ctx context.Context, address string) error {
	return s.fetch(ctx, address, false)
}

// Refresh refetches the published token in the background. It is skipped
// with ErrRefreshSkipped when a fetch is in flight or mint is no longer the
// published token. A refresh never publishes loading, keeps the current
// data when it fails and leaves recent searches untouched. A user fetch
// issued meanwhile supersedes it.
func (s *Store) Refresh(ctx context.Context, mint string) error {
	return s.fetch(ctx, mint, true)
}

func (s *Store) fetch(ctx context.Context, address string, refresh bool) error {
	start := time.Now()

	s.mu.Lock()
	if refresh && (s.cancel != nil || s.state.TokenData == nil || s.state.TokenData.Address != address) {
		s.mu.Unlock()
		return ErrRefreshSkipped
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen

	if err := ValidateAddress(address); err != nil {
		s.state.Error = MsgInvalidAddress
		s.state.Loading = false
		s.publishLocked()
		s.mu.Unlock()
		observability.RecordFetch(observability.OutcomeInvalid, time.Since(start).Seconds())
		return err
	}

	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if s.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	s.cancel = cancel
	if !refresh {
		s.state.Loading = true
		s.state.Error = ""
		s.publishLocked()
	}
	s.mu.Unlock()
	defer cancel()

	logger := s.logger.With().Str("mint", address).Uint64("fetch", gen).Bool("refresh", refresh).Logger()
	logger.Debug().Msg("fetching token data")

	data, err := s.load(fetchCtx, address)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		logger.Debug().Msg("fetch superseded")
		observability.RecordFetch(observability.OutcomeSuperseded, time.Since(start).Seconds())
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil && refresh {
		s.mu.Unlock()
		logger.Warn().Err(err).Msg("refresh failed, keeping published data")
		observability.RecordFetch(outcomeOf(err), time.Since(start).Seconds())
		return err
	}
	if err != nil {
		s.state.Error = Message(err)
		s.state.Loading = false
		s.state.TokenData = nil
		s.publishLocked()
		s.mu.Unlock()

		logger.Warn().Err(err).Str("message", Message(err)).Msg("fetch failed")
		observability.RecordFetch(outcomeOf(err), time.Since(start).Seconds())
		return err
	}

	s.state.TokenData = data
	s.state.Loading = false
	s.state.MintAddress = address
	var recent []string
	if !refresh {
		s.state.RecentSearches = prependRecent(s.state.RecentSearches, address)
		recent = append([]string{}, s.state.RecentSearches...)
	}
	s.publishLocked()
	s.mu.Unlock()

	if !refresh {
		s.persistRecent(recent)
	}
	s.recordSnapshot(data)

	logger.Info().
		Str("name", data.Name).
		Str("symbol", data.Symbol).
		Int("holders", len(data.Holders)).
		Float64("supply", data.TotalSupply).
		Dur("elapsed", time.Since(start)).
		Msg("token data published")
	observability.RecordFetch(observability.OutcomeSuccess, time.Since(start).Seconds())
	observability.RecordHolders(len(data.Holders))
	observability.RecordSuccess(float64(time.Now().Unix()))
	return nil
}

// load runs the provider calls and reduces them into TokenMetadata.
func (s *Store) load(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	hs, err := s.holders.Holders(ctx, address)
	if err != nil {
		return nil, wrapStageError(stageHolders, err)
	}
	if len(hs) == 0 {
		return nil, ErrNoHolders
	}
	holders.SortByBalance(hs)
	hs = holders.Top(hs, domain.MaxHolders)

	if s.linker != nil {
		linked, err := s.linker.Link(ctx, hs)
		switch {
		case err == nil:
			hs = linked
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			s.logger.Warn().Err(err).Str("mint", address).Msg("holder linking failed")
			observability.RecordLinkError()
		}
	}

	entry, err := s.metadata.TokenMetadata(ctx, address)
	if err != nil {
		return nil, wrapStageError(stageMetadata, err)
	}
	return reduce(address, hs, entry), nil
}

// reduce builds TokenMetadata from holders and a metadata entry.
func reduce(address string, hs []domain.Holder, entry *solana.MetadataEntry) *domain.TokenMetadata {
	m := &domain.TokenMetadata{
		Name:        domain.UnknownName,
		Symbol:      domain.UnknownSymbol,
		TotalSupply: domain.TotalBalance(hs),
		Address:     address,
		Holders:     hs,
	}
	if entry == nil {
		return m
	}
	if entry.Name != nil && *entry.Name != "" {
		m.Name = *entry.Name
	}
	if entry.Symbol != nil && *entry.Symbol != "" {
		m.Symbol = *entry.Symbol
	}
	if entry.Decimals != nil {
		m.Decimals = *entry.Decimals
	}
	if entry.Image != nil && *entry.Image != "" {
		img := *entry.Image
		m.Image = &img
	}
	return m
}

func (s *Store) recordSnapshot(data *domain.TokenMetadata) {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	snap := domain.NewSnapshot(data, s.now().UnixMilli())
	if err := s.snapshots.Record(ctx, snap); err != nil {
		s.logger.Error().Err(err).Str("mint", data.Address).Msg("failed to record snapshot")
		observability.RecordSnapshotError()
	}
}

func outcomeOf(err error) string {
	var fe *fetchError
	switch {
	case errors.Is(err, ErrNoHolders):
		return observability.OutcomeNoHolders
	case errors.As(err, &fe) && fe.stage == stageMetadata:
		return observability.OutcomeMetaError
	case errors.As(err, &fe):
		return observability.OutcomeRPCError
	default:
		return observability.OutcomeError
	}
}
