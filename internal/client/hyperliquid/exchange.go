package hyperliquid

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// ExchangeClient signs and submits orders to the order-entry API on
// behalf of an agent wallet.
type ExchangeClient struct {
	host       string
	httpClient *http.Client
}

func NewExchangeClient(httpClient *http.Client, host string) *ExchangeClient {
	if host == "" {
		host = MainnetAPIURL
	}
	return &ExchangeClient{
		host:       strings.TrimRight(host, "/"),
		httpClient: httpClient,
	}
}

// OrderRequest describes one immediate-or-cancel spot buy.
type OrderRequest struct {
	AssetIndex int
	Price      string
	Size       string
	// Builder fields are included in the payload only when the fee is
	// positive. The fee unit is tenths of a basis point.
	BuilderAddress     string
	BuilderFeeTenthBps int64
}

type orderWire struct {
	Asset      int           `json:"a"`
	IsBuy      bool          `json:"b"`
	Price      string        `json:"p"`
	Size       string        `json:"s"`
	ReduceOnly bool          `json:"r"`
	Type       orderTypeWire `json:"t"`
}

type orderTypeWire struct {
	Limit limitWire `json:"limit"`
}

type limitWire struct {
	Tif string `json:"tif"`
}

type builderWire struct {
	Builder string `json:"b"`
	Fee     int64  `json:"f"`
}

type orderAction struct {
	Type     string       `json:"type"`
	Orders   []orderWire  `json:"orders"`
	Grouping string       `json:"grouping"`
	Builder  *builderWire `json:"builder,omitempty"`
}

type signatureWire struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

type exchangeRequest struct {
	Action    orderAction   `json:"action"`
	Nonce     int64         `json:"nonce"`
	Signature signatureWire `json:"signature"`
}

// OrderStatus is one per-order entry of the venue's response. Exactly one
// of the fields is set.
type OrderStatus struct {
	Resting *struct {
		OID int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		OID     int64  `json:"oid"`
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

type OrderResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []OrderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
	Raw json.RawMessage `json:"-"`
}

// SubmitSpotBuyIOC signs and submits one IOC buy order with the given
// agent key. The key is used for the duration of this call only and must
// not be retained by the caller beyond it.
func (c *ExchangeClient) SubmitSpotBuyIOC(ctx context.Context, req OrderRequest, key *ecdsa.PrivateKey) (*OrderResponse, error) {
	if key == nil {
		return nil, fmt.Errorf("signing key is required")
	}
	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      SpotAssetIDOffset + req.AssetIndex,
			IsBuy:      true,
			Price:      req.Price,
			Size:       req.Size,
			ReduceOnly: false,
			Type:       orderTypeWire{Limit: limitWire{Tif: "Ioc"}},
		}},
		Grouping: "na",
	}
	if req.BuilderAddress != "" && req.BuilderFeeTenthBps > 0 {
		action.Builder = &builderWire{
			Builder: strings.ToLower(req.BuilderAddress),
			Fee:     req.BuilderFeeTenthBps,
		}
	}

	nonce := time.Now().UnixMilli()
	sig, err := signAction(action, nonce, key)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	body, err := json.Marshal(exchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/exchange", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out OrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	out.Raw = raw

	if out.Status != "ok" {
		return &out, fmt.Errorf("exchange rejected order: %s", strings.TrimSpace(string(raw)))
	}
	for _, st := range out.Response.Data.Statuses {
		if st.Error != "" {
			return &out, fmt.Errorf("order rejected: %s", st.Error)
		}
	}
	return &out, nil
}

// signAction signs the keccak digest of the canonical action bytes plus
// the nonce, producing the r/s/v signature the exchange verifies against
// the agent address.
func signAction(action orderAction, nonce int64, key *ecdsa.PrivateKey) (signatureWire, error) {
	actionBytes, err := json.Marshal(action)
	if err != nil {
		return signatureWire{}, err
	}
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], uint64(nonce))
	digest := crypto.Keccak256(actionBytes, nonceBytes[:])

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return signatureWire{}, err
	}
	return signatureWire{
		R: "0x" + hex.EncodeToString(sig[:32]),
		S: "0x" + hex.EncodeToString(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

// AgentAddress derives the on-exchange address for an agent key.
func AgentAddress(key *ecdsa.PrivateKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

// ParsePrivateKeyHex parses a 0x-prefixed or bare hex secp256k1 key.
func ParsePrivateKeyHex(raw string) (*ecdsa.PrivateKey, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	return crypto.HexToECDSA(raw)
}
