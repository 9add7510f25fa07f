package hyperliquid

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitSpotBuyIOC_PayloadShape(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	var captured exchangeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/exchange", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"response": map[string]any{
				"type": "order",
				"data": map[string]any{
					"statuses": []map[string]any{
						{"filled": map[string]any{"oid": 1, "totalSz": "3.31", "avgPx": "100.46"}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewExchangeClient(srv.Client(), srv.URL)
	resp, err := c.SubmitSpotBuyIOC(context.Background(), OrderRequest{
		AssetIndex:         107,
		Price:              "100.46",
		Size:               "3.3180",
		BuilderAddress:     "0xFEE0000000000000000000000000000000000002",
		BuilderFeeTenthBps: 1500,
	}, key)
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.Len(t, captured.Action.Orders, 1)
	order := captured.Action.Orders[0]
	assert.Equal(t, SpotAssetIDOffset+107, order.Asset)
	assert.True(t, order.IsBuy)
	assert.False(t, order.ReduceOnly)
	assert.Equal(t, "100.46", order.Price)
	assert.Equal(t, "3.3180", order.Size)
	assert.Equal(t, "Ioc", order.Type.Limit.Tif)
	assert.Equal(t, "na", captured.Action.Grouping)

	require.NotNil(t, captured.Action.Builder)
	assert.Equal(t, "0xfee0000000000000000000000000000000000002", captured.Action.Builder.Builder)
	assert.Equal(t, int64(1500), captured.Action.Builder.Fee)

	assert.NotZero(t, captured.Nonce)
	assert.NotEmpty(t, captured.Signature.R)
}

func TestSubmitSpotBuyIOC_OmitsBuilderWithoutFee(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	var captured exchangeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer srv.Close()

	c := NewExchangeClient(srv.Client(), srv.URL)
	_, err = c.SubmitSpotBuyIOC(context.Background(), OrderRequest{
		AssetIndex: 1,
		Price:      "2",
		Size:       "5.00",
		// Address present but fee zero: no builder claim on the order.
		BuilderAddress:     "0xfee0000000000000000000000000000000000002",
		BuilderFeeTenthBps: 0,
	}, key)
	require.NoError(t, err)
	assert.Nil(t, captured.Action.Builder)
}

func TestSubmitSpotBuyIOC_VenueRejection(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"response": map[string]any{
				"type": "order",
				"data": map[string]any{
					"statuses": []map[string]any{
						{"error": "Order must have minimum value of $10."},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewExchangeClient(srv.Client(), srv.URL)
	_, err = c.SubmitSpotBuyIOC(context.Background(), OrderRequest{AssetIndex: 1, Price: "1", Size: "1"}, key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum value")
}

func TestSignAction_Deterministic(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	action := orderAction{
		Type:     "order",
		Orders:   []orderWire{{Asset: 10001, IsBuy: true, Price: "1", Size: "1", Type: orderTypeWire{Limit: limitWire{Tif: "Ioc"}}}},
		Grouping: "na",
	}
	a, err := signAction(action, 1700000000000, key)
	require.NoError(t, err)
	b, err := signAction(action, 1700000000000, key)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same action and nonce must sign identically")

	c, err := signAction(action, 1700000000001, key)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "nonce is part of the digest")
}

func TestParsePrivateKeyHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw := "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	parsed, err := ParsePrivateKeyHex(raw)
	require.NoError(t, err)
	assert.Equal(t, AgentAddress(key), AgentAddress(parsed))

	// Bare hex without the 0x prefix also parses.
	parsed, err = ParsePrivateKeyHex(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, AgentAddress(key), AgentAddress(parsed))

	_, err = ParsePrivateKeyHex("nonsense")
	require.Error(t, err)
}
