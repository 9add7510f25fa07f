package service

import (
	"context"
	"crypto/ecdsa"

	"hypersip/internal/client/hyperliquid"
)

// MarketDataGateway is the read-only slice of the exchange API the
// executor and fee sync consume. *hyperliquid.InfoClient satisfies it.
type MarketDataGateway interface {
	AllMids(ctx context.Context) (hyperliquid.AllMids, error)
	SpotMeta(ctx context.Context) (*hyperliquid.SpotMeta, error)
	MaxBuilderFee(ctx context.Context, user, builder string) (int64, error)
}

// OrderGateway submits signed orders. *hyperliquid.ExchangeClient
// satisfies it.
type OrderGateway interface {
	SubmitSpotBuyIOC(ctx context.Context, req hyperliquid.OrderRequest, key *ecdsa.PrivateKey) (*hyperliquid.OrderResponse, error)
}
