package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hypersip/internal/repository"
)

// UserRef identifies one user for fee-authorization reconciliation.
type UserRef struct {
	UserID        uuid.UUID
	WalletAddress string
}

// FeeAuthorization is the on-exchange truth for one user's builder-fee
// grant.
type FeeAuthorization struct {
	Approved bool
	Fee      int64
}

// FeeSyncService reconciles stored builder-fee approval state against the
// exchange, so orders never carry a fee claim the venue would reject.
type FeeSyncService struct {
	Store          repository.Store
	Market         MarketDataGateway
	Logger         *zap.Logger
	BuilderAddress string
}

// SyncUsers queries the exchange for each unique user's maximum
// authorized builder fee and persists the result. A fee above zero counts
// as authorized. Per-user failures are logged and skipped; they never
// abort the sync for other users. The returned map holds the fresh state
// for every user that synced successfully.
func (s *FeeSyncService) SyncUsers(ctx context.Context, users []UserRef) map[uuid.UUID]FeeAuthorization {
	out := make(map[uuid.UUID]FeeAuthorization, len(users))
	if s.BuilderAddress == "" {
		if s.Logger != nil {
			s.Logger.Warn("builder address not configured, skipping fee sync")
		}
		return out
	}

	seen := make(map[uuid.UUID]struct{}, len(users))
	for _, u := range users {
		if _, ok := seen[u.UserID]; ok {
			continue
		}
		seen[u.UserID] = struct{}{}

		fee, err := s.Market.MaxBuilderFee(ctx, u.WalletAddress, s.BuilderAddress)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("builder fee query failed",
					zap.String("user_wallet", u.WalletAddress),
					zap.Error(err),
				)
			}
			continue
		}

		auth := FeeAuthorization{Approved: fee > 0, Fee: fee}
		if err := s.Store.UpdateBuilderAuthorization(ctx, u.UserID, auth.Approved, auth.Fee); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("builder fee persist failed",
					zap.String("user_wallet", u.WalletAddress),
					zap.Error(err),
				)
			}
			continue
		}
		out[u.UserID] = auth
	}
	return out
}
