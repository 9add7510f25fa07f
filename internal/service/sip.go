package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hypersip/internal/client/hyperliquid"
	"hypersip/internal/models"
	"hypersip/internal/repository"
)

// SIPService handles plan lifecycle: creation with asset validation and
// the status transitions the model allows.
type SIPService struct {
	Store  repository.Store
	Market MarketDataGateway
	Agents *AgentService
	Logger *zap.Logger
}

type CreateSIPParams struct {
	WalletAddress     string
	AssetName         string
	MonthlyAmountUSDC decimal.Decimal
}

// Create validates the asset against exchange metadata, provisions an
// agent credential if the user has none, and stores the plan.
func (s *SIPService) Create(ctx context.Context, params CreateSIPParams) (*models.SIP, error) {
	if params.MonthlyAmountUSDC.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("monthly amount must be positive")
	}

	meta, err := s.Market.SpotMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch spot meta: %w", err)
	}
	token, ok := meta.TokenByName(params.AssetName)
	if !ok {
		return nil, fmt.Errorf("unknown asset %q", params.AssetName)
	}
	pairIndex, ok := spotPairIndexForToken(meta, token.Index)
	if !ok {
		return nil, fmt.Errorf("no spot pair for asset %q", params.AssetName)
	}

	// First plan creation provisions the credential.
	if _, err := s.Agents.EnsureAgent(ctx, params.WalletAddress); err != nil {
		return nil, err
	}
	user, err := s.Store.GetUserByWallet(ctx, params.WalletAddress)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found for wallet %s", params.WalletAddress)
	}

	item := &models.SIP{
		UserID:            user.ID,
		AssetName:         token.Name,
		AssetIndex:        pairIndex,
		MonthlyAmountUSDC: params.MonthlyAmountUSDC,
		Status:            models.SIPStatusActive,
	}
	if err := s.Store.CreateSIP(ctx, item); err != nil {
		return nil, fmt.Errorf("persist sip: %w", err)
	}
	s.Logger.Info("sip created",
		zap.String("sip_id", item.ID.String()),
		zap.String("asset", item.AssetName),
		zap.String("monthly_amount", item.MonthlyAmountUSDC.String()),
	)
	return item, nil
}

// List returns a user's plans, newest first.
func (s *SIPService) List(ctx context.Context, walletAddress string) ([]models.SIP, error) {
	user, err := s.Store.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []models.SIP{}, nil
	}
	return s.Store.ListSIPsByUser(ctx, user.ID)
}

// SetStatus applies a status transition, rejecting anything the plan's
// lifecycle forbids. Cancelled plans stay cancelled.
func (s *SIPService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.SIP, error) {
	item, err := s.Store.GetSIPByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("sip %s not found", id)
	}
	if !item.CanTransitionTo(status) {
		return nil, fmt.Errorf("cannot transition sip from %s to %s", item.Status, status)
	}
	if err := s.Store.UpdateSIPStatus(ctx, id, status); err != nil {
		return nil, err
	}
	item.Status = status
	return item, nil
}

// spotPairIndexForToken finds the universe pair trading the token against
// the quote currency (token index 0).
func spotPairIndexForToken(meta *hyperliquid.SpotMeta, tokenIndex int) (int, bool) {
	for _, pair := range meta.Universe {
		if len(pair.Tokens) == 2 && pair.Tokens[0] == tokenIndex && pair.Tokens[1] == 0 {
			return pair.Index, true
		}
	}
	return 0, false
}
