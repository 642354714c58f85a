package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"holdermap/internal/observability"
)

// Default configuration values.
// Holder queries are single-attempt; retries are opt-in via WithMaxRetries.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultPageLimit   = 1000
	DefaultMaxPages    = 50
)

// RPC method names.
const (
	MethodGetProgramAccounts      = "getProgramAccounts"
	MethodGetProgramAccountsV2    = "getProgramAccountsV2"
	MethodGetTokenLargestAccounts = "getTokenLargestAccounts"
	MethodGetSignaturesForAddress = "getSignaturesForAddress"
	MethodGetTransaction          = "getTransaction"
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
	logger      zerolog.Logger
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout. Zero disables the timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithLogger sets the logger used for pagination warnings.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger.With().Str("component", "rpc").Logger()
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call, retrying transport failures when configured.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = newStatusError(resp.StatusCode, respBody)
			if !retryableStatus(resp.StatusCode) {
				break
			}
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if c.maxRetries > 0 {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return lastErr
}

// GetProgramAccounts returns the accounts owned by program matching opts.
func (c *HTTPClient) GetProgramAccounts(ctx context.Context, program string, opts *ProgramAccountsOpts) ([]KeyedAccount, error) {
	if opts == nil {
		opts = &ProgramAccountsOpts{}
	}
	config := map[string]interface{}{}
	if opts.Encoding != "" {
		config["encoding"] = opts.Encoding
	}
	if len(opts.Filters) > 0 {
		config["filters"] = opts.Filters
	}

	if !opts.Paginated {
		var raw json.RawMessage
		if err := c.call(ctx, MethodGetProgramAccounts, []interface{}{program, config}, &raw); err != nil {
			return nil, err
		}
		accounts, _, err := decodeProgramAccounts(raw)
		return accounts, err
	}

	limit := opts.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	config["limit"] = limit

	var all []KeyedAccount
	for page := 0; page < maxPages; page++ {
		var raw json.RawMessage
		if err := c.call(ctx, MethodGetProgramAccountsV2, []interface{}{program, config}, &raw); err != nil {
			return nil, err
		}
		accounts, next, err := decodeProgramAccounts(raw)
		if err != nil {
			return nil, err
		}
		all = append(all, accounts...)
		if next == "" {
			return all, nil
		}
		config["paginationKey"] = next
	}
	// The provider still has pages; results are a truncated, unordered subset.
	c.logger.Warn().
		Str("program", program).
		Int("max_pages", maxPages).
		Int("accounts", len(all)).
		Msg("program accounts truncated at page limit")
	return all, nil
}

// programAccountsPage covers the object shapes a getProgramAccounts result can take:
// Helius V2 pages ({accounts, paginationKey}) and withContext responses ({value}).
type programAccountsPage struct {
	Accounts      []KeyedAccount `json:"accounts"`
	PaginationKey *string        `json:"paginationKey"`
	Value         []KeyedAccount `json:"value"`
}

// decodeProgramAccounts decodes any supported result shape.
// Returns the accounts and the next pagination key ("" when exhausted).
func decodeProgramAccounts(raw json.RawMessage) ([]KeyedAccount, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}

	switch trimmed[0] {
	case '[':
		var accounts []KeyedAccount
		if err := json.Unmarshal(trimmed, &accounts); err != nil {
			return nil, "", fmt.Errorf("decode program accounts: %w", err)
		}
		return accounts, "", nil
	case '{':
		var page programAccountsPage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, "", fmt.Errorf("decode program accounts page: %w", err)
		}
		accounts := page.Accounts
		if accounts == nil {
			accounts = page.Value
		}
		next := ""
		if page.PaginationKey != nil && len(accounts) > 0 {
			next = *page.PaginationKey
		}
		return accounts, next, nil
	default:
		return nil, "", fmt.Errorf("decode program accounts: unexpected result %q", truncate(trimmed, 32))
	}
}

// GetTokenLargestAccounts returns the largest token accounts of a mint.
func (c *HTTPClient) GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	var result struct {
		Value []LargestAccount `json:"value"`
	}
	if err := c.call(ctx, MethodGetTokenLargestAccounts, []interface{}{mint}, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	params := []interface{}{address}
	if opts != nil {
		config := make(map[string]interface{})
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
		if len(config) > 0 {
			params = append(params, config)
		}
	}

	var result []struct {
		Signature string      `json:"signature"`
		Slot      int64       `json:"slot"`
		BlockTime *int64      `json:"blockTime"`
		Err       interface{} `json:"err"`
	}
	if err := c.call(ctx, MethodGetSignaturesForAddress, params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}
	return sigs, nil
}

// transactionAccountsResult is the subset of getTransaction needed to list
// referenced accounts, including v0 address-lookup-table loads.
type transactionAccountsResult struct {
	Meta *struct {
		LoadedAddresses *struct {
			Writable []string `json:"writable"`
			Readonly []string `json:"readonly"`
		} `json:"loadedAddresses"`
	} `json:"meta"`
	Transaction *struct {
		Message *struct {
			AccountKeys []string `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// GetTransactionAccounts returns all account keys referenced by a transaction.
func (c *HTTPClient) GetTransactionAccounts(ctx context.Context, signature string) ([]string, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *transactionAccountsResult
	if err := c.call(ctx, MethodGetTransaction, params, &result); err != nil {
		return nil, err
	}
	if result == nil || result.Transaction == nil || result.Transaction.Message == nil {
		return nil, nil
	}

	keys := append([]string(nil), result.Transaction.Message.AccountKeys...)
	if result.Meta != nil && result.Meta.LoadedAddresses != nil {
		keys = append(keys, result.Meta.LoadedAddresses.Writable...)
		keys = append(keys, result.Meta.LoadedAddresses.Readonly...)
	}
	return keys, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ RPCClient = (*HTTPClient)(nil)
