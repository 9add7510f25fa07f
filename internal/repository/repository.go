package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hypersip/internal/models"
)

// PlanScope selects which due plans a batch run considers. A zero value
// means all active plans across all users.
type PlanScope struct {
	WalletAddress string
}

// DuePlan is one active plan joined with the owner's execution data:
// wallet address, encrypted credential and builder authorization state.
type DuePlan struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	AssetName           string
	AssetIndex          int
	MonthlyAmountUSDC   decimal.Decimal
	UserWalletAddress   string
	EncryptedPrivateKey string
	BuilderApproved     bool
	BuilderFee          int64
}

type ListExecutionRecordsParams struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

type Store interface {
	// Users.
	GetOrCreateUserByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error)

	// Agent credentials.
	GetAgentWallet(ctx context.Context, userID uuid.UUID) (*models.AgentWallet, error)
	CreateAgentWallet(ctx context.Context, item *models.AgentWallet) error
	UpdateAgentApproval(ctx context.Context, userID uuid.UUID, approved bool) error
	UpdateBuilderAuthorization(ctx context.Context, userID uuid.UUID, approved bool, fee int64) error

	// Plans.
	CreateSIP(ctx context.Context, item *models.SIP) error
	GetSIPByID(ctx context.Context, id uuid.UUID) (*models.SIP, error)
	ListSIPsByUser(ctx context.Context, userID uuid.UUID) ([]models.SIP, error)
	UpdateSIPStatus(ctx context.Context, id uuid.UUID, status string) error
	GetDuePlans(ctx context.Context, scope PlanScope) ([]DuePlan, error)

	// Outcomes.
	InsertExecutionRecord(ctx context.Context, item *models.ExecutionRecord) error
	ListExecutionRecords(ctx context.Context, params ListExecutionRecordsParams) ([]models.ExecutionRecord, error)
}
