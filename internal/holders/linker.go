package holders

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"holdermap/internal/domain"
	"holdermap/internal/solana"
)

// Linker defaults.
const (
	DefaultSignatureLimit = 25
	DefaultConcurrency    = 4
)

// Linker connects holders that appear together in recent transactions.
type Linker struct {
	rpc         solana.RPCClient
	topK        int
	sigLimit    int
	concurrency int
	logger      zerolog.Logger
}

// LinkerOption configures Linker.
type LinkerOption func(*Linker)

// WithSignatureLimit sets how many recent signatures are scanned per holder.
func WithSignatureLimit(n int) LinkerOption {
	return func(l *Linker) {
		l.sigLimit = n
	}
}

// WithConcurrency sets the maximum number of in-flight RPC calls.
func WithConcurrency(n int) LinkerOption {
	return func(l *Linker) {
		l.concurrency = n
	}
}

// NewLinker creates a linker over the topK largest holders.
func NewLinker(rpc solana.RPCClient, topK int, logger zerolog.Logger, opts ...LinkerOption) *Linker {
	l := &Linker{
		rpc:         rpc,
		topK:        topK,
		sigLimit:    DefaultSignatureLimit,
		concurrency: DefaultConcurrency,
		logger:      logger.With().Str("component", "linker").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}
	return l
}

// Link returns a copy of holders whose Connections list every other holder
// that shares a transaction with it. Only the topK largest holders are
// scanned; connections may point at any holder in the list.
func (l *Linker) Link(ctx context.Context, holders []domain.Holder) ([]domain.Holder, error) {
	out := domain.CloneHolders(holders)
	if l.topK <= 0 || len(out) < 2 {
		return out, nil
	}

	index := make(map[string]int, len(out))
	for i, h := range out {
		index[h.Address] = i
	}

	scan := Top(out, l.topK)
	signatures, err := l.collectSignatures(ctx, scan)
	if err != nil {
		return nil, err
	}

	edges, err := l.collectEdges(ctx, signatures, index)
	if err != nil {
		return nil, err
	}

	for i := range out {
		conns := edges[out[i].Address]
		list := make([]string, 0, len(conns))
		for addr := range conns {
			list = append(list, addr)
		}
		sort.Strings(list)
		out[i].Connections = list
	}

	l.logger.Debug().
		Int("scanned", len(scan)).
		Int("signatures", len(signatures)).
		Msg("linked holders")
	return out, nil
}

// collectSignatures returns the unique signatures touching any scanned holder.
func (l *Linker) collectSignatures(ctx context.Context, scan []domain.Holder) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		sigs []string
	)
	for _, h := range scan {
		address := h.Address
		g.Go(func() error {
			infos, err := l.rpc.GetSignaturesForAddress(gctx, address, &solana.SignaturesOpts{Limit: l.sigLimit})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, info := range infos {
				if info.Err != nil {
					continue
				}
				if _, ok := seen[info.Signature]; ok {
					continue
				}
				seen[info.Signature] = struct{}{}
				sigs = append(sigs, info.Signature)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(sigs)
	return sigs, nil
}

// collectEdges fetches each transaction and connects the holders it references.
func (l *Linker) collectEdges(ctx context.Context, signatures []string, index map[string]int) (map[string]map[string]struct{}, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	var (
		mu    sync.Mutex
		edges = make(map[string]map[string]struct{})
	)
	for _, sig := range signatures {
		sig := sig
		g.Go(func() error {
			keys, err := l.rpc.GetTransactionAccounts(gctx, sig)
			if err != nil {
				return err
			}

			var present []string
			dedup := make(map[string]struct{})
			for _, k := range keys {
				if _, ok := index[k]; !ok {
					continue
				}
				if _, ok := dedup[k]; ok {
					continue
				}
				dedup[k] = struct{}{}
				present = append(present, k)
			}
			if len(present) < 2 {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, a := range present {
				for _, b := range present {
					if a == b {
						continue
					}
					if edges[a] == nil {
						edges[a] = make(map[string]struct{})
					}
					edges[a][b] = struct{}{}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return edges, nil
}
