package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"holdermap/internal/observability"
)

// MetadataClient queries a Helius-style token-metadata REST endpoint.
type MetadataClient struct {
	endpoint string
	client   *http.Client
}

// NewMetadataClient creates a client for endpoint (including any api-key query).
func NewMetadataClient(endpoint string, client *http.Client) *MetadataClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &MetadataClient{endpoint: endpoint, client: client}
}

// metadataResponseItem is one element of the token-metadata response array.
// Only the fields read by normalize are declared.
type metadataResponseItem struct {
	Account            string `json:"account"`
	OnChainAccountInfo *struct {
		AccountInfo *struct {
			Data *struct {
				Parsed *struct {
					Info *struct {
						Decimals *int `json:"decimals"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"accountInfo"`
	} `json:"onChainAccountInfo"`
	OnChainMetadata *struct {
		Metadata *struct {
			Data *struct {
				Name     *string `json:"name"`
				Symbol   *string `json:"symbol"`
				Decimals *int    `json:"decimals"`
			} `json:"data"`
		} `json:"metadata"`
	} `json:"onChainMetadata"`
	OffChainMetadata *struct {
		Metadata *struct {
			Name   *string `json:"name"`
			Symbol *string `json:"symbol"`
			Image  *string `json:"image"`
		} `json:"metadata"`
	} `json:"offChainMetadata"`
	LegacyMetadata *struct {
		Name     *string `json:"name"`
		Symbol   *string `json:"symbol"`
		Decimals *int    `json:"decimals"`
		LogoURI  *string `json:"logoURI"`
	} `json:"legacyMetadata"`
}

// TokenMetadata fetches metadata for a single mint.
// An empty response array yields an entry with every field nil.
func (c *MetadataClient) TokenMetadata(ctx context.Context, mint string) (*MetadataEntry, error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency("token-metadata", time.Since(start).Seconds())
	}()

	body, err := json.Marshal(map[string][]string{"mintAccounts": {mint}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}

	var items []metadataResponseItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	entry := &MetadataEntry{Mint: mint}
	if len(items) > 0 {
		items[0].normalizeInto(entry)
	}
	return entry, nil
}

// normalizeInto fills entry preferring on-chain values, then off-chain, then legacy.
func (m *metadataResponseItem) normalizeInto(entry *MetadataEntry) {
	if m.OnChainMetadata != nil && m.OnChainMetadata.Metadata != nil && m.OnChainMetadata.Metadata.Data != nil {
		d := m.OnChainMetadata.Metadata.Data
		entry.Name = firstNonEmpty(entry.Name, d.Name)
		entry.Symbol = firstNonEmpty(entry.Symbol, d.Symbol)
		if entry.Decimals == nil {
			entry.Decimals = d.Decimals
		}
	}
	if ai := m.OnChainAccountInfo; ai != nil && ai.AccountInfo != nil && ai.AccountInfo.Data != nil &&
		ai.AccountInfo.Data.Parsed != nil && ai.AccountInfo.Data.Parsed.Info != nil {
		if dec := ai.AccountInfo.Data.Parsed.Info.Decimals; dec != nil {
			entry.Decimals = dec
		}
	}
	if m.OffChainMetadata != nil && m.OffChainMetadata.Metadata != nil {
		off := m.OffChainMetadata.Metadata
		entry.Name = firstNonEmpty(entry.Name, off.Name)
		entry.Symbol = firstNonEmpty(entry.Symbol, off.Symbol)
		entry.Image = firstNonEmpty(entry.Image, off.Image)
	}
	if legacy := m.LegacyMetadata; legacy != nil {
		entry.Name = firstNonEmpty(entry.Name, legacy.Name)
		entry.Symbol = firstNonEmpty(entry.Symbol, legacy.Symbol)
		entry.Image = firstNonEmpty(entry.Image, legacy.LogoURI)
		if entry.Decimals == nil {
			entry.Decimals = legacy.Decimals
		}
	}
}

// firstNonEmpty keeps current unless it is unset, otherwise takes candidate.
// On-chain strings are null padded, so padding is trimmed before the check.
func firstNonEmpty(current, candidate *string) *string {
	if current != nil {
		return current
	}
	if candidate == nil {
		return nil
	}
	v := strings.TrimSpace(strings.TrimRight(*candidate, "\x00"))
	if v == "" {
		return nil
	}
	return &v
}

var _ MetadataFetcher = (*MetadataClient)(nil)
