package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hypersip/internal/models"
	"hypersip/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetOrCreateUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	walletAddress = normalizeAddress(walletAddress)
	if walletAddress == "" {
		return nil, errors.New("wallet address is required")
	}
	item := models.User{
		ID:            uuid.New(),
		WalletAddress: walletAddress,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: true,
	}).Create(&item).Error; err != nil {
		return nil, err
	}
	// Re-read so a conflicting insert still returns the stored row.
	return s.GetUserByWallet(ctx, walletAddress)
}

func (s *Store) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	walletAddress = normalizeAddress(walletAddress)
	var item models.User
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAgentWallet(ctx context.Context, userID uuid.UUID) (*models.AgentWallet, error) {
	var item models.AgentWallet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateAgentWallet(ctx context.Context, item *models.AgentWallet) error {
	if item == nil {
		return errors.New("agent wallet is required")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateAgentApproval(ctx context.Context, userID uuid.UUID, approved bool) error {
	return s.db.WithContext(ctx).
		Model(&models.AgentWallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"approved":   approved,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) UpdateBuilderAuthorization(ctx context.Context, userID uuid.UUID, approved bool, fee int64) error {
	return s.db.WithContext(ctx).
		Model(&models.AgentWallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"builder_approved": approved,
			"builder_fee":      fee,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (s *Store) CreateSIP(ctx context.Context, item *models.SIP) error {
	if item == nil {
		return errors.New("sip is required")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = models.SIPStatusActive
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSIPByID(ctx context.Context, id uuid.UUID) (*models.SIP, error) {
	var item models.SIP
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSIPsByUser(ctx context.Context, userID uuid.UUID) ([]models.SIP, error) {
	var items []models.SIP
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateSIPStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.db.WithContext(ctx).
		Model(&models.SIP{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// GetDuePlans joins active plans with the owner's wallet address and
// approved agent credential. Plans whose owner has no approved agent are
// excluded, matching the gating data the executor needs.
func (s *Store) GetDuePlans(ctx context.Context, scope repository.PlanScope) ([]repository.DuePlan, error) {
	query := s.db.WithContext(ctx).
		Table("sips").
		Select(`sips.id,
			sips.user_id,
			sips.asset_name,
			sips.asset_index,
			sips.monthly_amount_usdc,
			users.wallet_address AS user_wallet_address,
			agent_wallets.encrypted_private_key,
			agent_wallets.builder_approved,
			agent_wallets.builder_fee`).
		Joins("JOIN users ON users.id = sips.user_id").
		Joins("JOIN agent_wallets ON agent_wallets.user_id = sips.user_id").
		Where("sips.status = ?", models.SIPStatusActive).
		Where("agent_wallets.approved = ?", true).
		Order("sips.created_at asc")

	if wallet := normalizeAddress(scope.WalletAddress); wallet != "" {
		query = query.Where("users.wallet_address = ?", wallet)
	}

	var items []repository.DuePlan
	if err := query.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertExecutionRecord(ctx context.Context, item *models.ExecutionRecord) error {
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListExecutionRecords(ctx context.Context, params repository.ListExecutionRecordsParams) ([]models.ExecutionRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.ExecutionRecord{})
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	var items []models.ExecutionRecord
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
