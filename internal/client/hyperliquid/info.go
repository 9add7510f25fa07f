// Package hyperliquid holds thin clients for the exchange's info and
// order-entry APIs. Both endpoints take POSTed JSON and answer JSON; the
// protocol details beyond that are the venue's documented contract.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Public API endpoints per network.
const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
)

// BaseURL resolves the venue endpoint: an explicit host wins, otherwise
// the testnet flag picks the public endpoint.
func BaseURL(explicit string, testnet bool) string {
	if explicit != "" {
		return explicit
	}
	if testnet {
		return TestnetAPIURL
	}
	return MainnetAPIURL
}

// InfoClient is a read-only client to the market-data API.
type InfoClient struct {
	host       string
	httpClient *http.Client
}

func NewInfoClient(httpClient *http.Client, host string) *InfoClient {
	if host == "" {
		host = MainnetAPIURL
	}
	return &InfoClient{
		host:       strings.TrimRight(host, "/"),
		httpClient: httpClient,
	}
}

func (c *InfoClient) post(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal info request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/info", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read info response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode info response: %w", err)
	}
	return nil
}

// AllMids returns the current mid price per market.
func (c *InfoClient) AllMids(ctx context.Context) (AllMids, error) {
	var mids AllMids
	if err := c.post(ctx, map[string]string{"type": "allMids"}, &mids); err != nil {
		return nil, err
	}
	return mids, nil
}

// SpotMeta returns spot asset metadata, including per-token size decimals.
func (c *InfoClient) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	var meta SpotMeta
	if err := c.post(ctx, map[string]string{"type": "spotMeta"}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// MaxBuilderFee returns the maximum fee, in tenths of a basis point, the
// user has authorized for the given builder address. Zero means no
// authorization.
func (c *InfoClient) MaxBuilderFee(ctx context.Context, user, builder string) (int64, error) {
	payload := map[string]string{
		"type":    "maxBuilderFee",
		"user":    strings.ToLower(strings.TrimSpace(user)),
		"builder": strings.ToLower(strings.TrimSpace(builder)),
	}
	var fee int64
	if err := c.post(ctx, payload, &fee); err != nil {
		return 0, err
	}
	return fee, nil
}

// SpotClearinghouseState returns a user's spot balances.
func (c *InfoClient) SpotClearinghouseState(ctx context.Context, user string) (*SpotClearinghouseState, error) {
	payload := map[string]string{
		"type": "spotClearinghouseState",
		"user": strings.ToLower(strings.TrimSpace(user)),
	}
	var state SpotClearinghouseState
	if err := c.post(ctx, payload, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
