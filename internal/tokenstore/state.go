package tokenstore

import "holdermap/internal/domain"

// MaxRecentSearches caps the recent-search history.
const MaxRecentSearches = 10

// State is an immutable snapshot of the store.
// Error is empty when no error is pending.
type State struct {
	MintAddress    string                `json:"mintAddress"`
	TokenData      *domain.TokenMetadata `json:"tokenData"`
	Loading        bool                  `json:"loading"`
	Error          string                `json:"error,omitempty"`
	RecentSearches []string              `json:"recentSearches"`
}

func (s State) clone() State {
	c := s
	c.TokenData = s.TokenData.Clone()
	c.RecentSearches = append([]string{}, s.RecentSearches...)
	return c
}

// prependRecent moves address to the front, dropping duplicates and
// trimming to MaxRecentSearches.
func prependRecent(list []string, address string) []string {
	out := make([]string, 0, MaxRecentSearches)
	out = append(out, address)
	for _, a := range list {
		if a == address {
			continue
		}
		if len(out) == MaxRecentSearches {
			break
		}
		out = append(out, a)
	}
	return out
}

func removeRecent(list []string, address string) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		if a != address {
			out = append(out, a)
		}
	}
	return out
}

// normalizeRecent dedups a persisted list and applies the cap.
func normalizeRecent(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, a := range list {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
		if len(out) == MaxRecentSearches {
			break
		}
	}
	return out
}
