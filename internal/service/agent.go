package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"hypersip/internal/client/hyperliquid"
	"hypersip/internal/models"
	"hypersip/internal/repository"
	"hypersip/internal/vault"
)

// AgentService provisions delegated signing credentials. One credential
// per user; key material leaves this package only as a vault token.
type AgentService struct {
	Store  repository.Store
	Vault  *vault.Vault
	Logger *zap.Logger
}

// AgentStatus is what callers may see of a credential: the address and
// approval flags, never the key.
type AgentStatus struct {
	AgentAddress    string `json:"agent_address"`
	Approved        bool   `json:"approved"`
	BuilderApproved bool   `json:"builder_approved"`
	BuilderFee      int64  `json:"builder_fee"`
	Created         bool   `json:"created"`
}

// EnsureAgent returns the user's existing credential or generates one.
// Generation is idempotent per user: a second call returns the stored
// credential.
func (s *AgentService) EnsureAgent(ctx context.Context, walletAddress string) (*AgentStatus, error) {
	user, err := s.Store.GetOrCreateUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	existing, err := s.Store.GetAgentWallet(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load agent wallet: %w", err)
	}
	if existing != nil {
		return &AgentStatus{
			AgentAddress:    existing.AgentAddress,
			Approved:        existing.Approved,
			BuilderApproved: existing.BuilderApproved,
			BuilderFee:      existing.BuilderFee,
		}, nil
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate agent key: %w", err)
	}
	address := hyperliquid.AgentAddress(key)
	token, err := s.Vault.Encrypt("0x" + hex.EncodeToString(crypto.FromECDSA(key)))
	if err != nil {
		return nil, fmt.Errorf("encrypt agent key: %w", err)
	}

	item := &models.AgentWallet{
		UserID:              user.ID,
		AgentAddress:        address,
		EncryptedPrivateKey: token,
		Approved:            false,
	}
	if err := s.Store.CreateAgentWallet(ctx, item); err != nil {
		return nil, fmt.Errorf("persist agent wallet: %w", err)
	}
	s.Logger.Info("agent wallet created",
		zap.String("user_wallet", walletAddress),
		zap.String("agent_address", address),
	)
	return &AgentStatus{AgentAddress: address, Created: true}, nil
}

// GetAgent returns the credential status for a wallet, or nil when the
// user or credential does not exist.
func (s *AgentService) GetAgent(ctx context.Context, walletAddress string) (*AgentStatus, error) {
	user, err := s.Store.GetUserByWallet(ctx, walletAddress)
	if err != nil || user == nil {
		return nil, err
	}
	agent, err := s.Store.GetAgentWallet(ctx, user.ID)
	if err != nil || agent == nil {
		return nil, err
	}
	return &AgentStatus{
		AgentAddress:    agent.AgentAddress,
		Approved:        agent.Approved,
		BuilderApproved: agent.BuilderApproved,
		BuilderFee:      agent.BuilderFee,
	}, nil
}

// MarkApproved records that the user approved the agent on the exchange.
func (s *AgentService) MarkApproved(ctx context.Context, walletAddress string) error {
	user, err := s.Store.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found for wallet %s", walletAddress)
	}
	return s.Store.UpdateAgentApproval(ctx, user.ID, true)
}

// ApproveBuilderFee records a user-driven builder-fee approval. The fee
// is in tenths of a basis point.
func (s *AgentService) ApproveBuilderFee(ctx context.Context, walletAddress string, fee int64) error {
	if fee <= 0 {
		return fmt.Errorf("builder fee must be positive, got %d", fee)
	}
	user, err := s.Store.GetOrCreateUserByWallet(ctx, walletAddress)
	if err != nil {
		return err
	}
	return s.Store.UpdateBuilderAuthorization(ctx, user.ID, true, fee)
}
