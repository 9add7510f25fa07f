package service

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/google/uuid"

	"hypersip/internal/client/hyperliquid"
	"hypersip/internal/models"
	"hypersip/internal/repository"
)

// stubStore is a test-only in-memory repository.Store. Only the methods
// the executor and fee sync touch do real work.
type stubStore struct {
	mu sync.Mutex

	plans    []repository.DuePlan
	plansErr error

	users  map[string]*models.User
	agents map[uuid.UUID]*models.AgentWallet
	sips   map[uuid.UUID]*models.SIP

	authUpdates map[uuid.UUID]FeeAuthorization
	records     []models.ExecutionRecord
}

func newStubStore() *stubStore {
	return &stubStore{
		users:       map[string]*models.User{},
		agents:      map[uuid.UUID]*models.AgentWallet{},
		sips:        map[uuid.UUID]*models.SIP{},
		authUpdates: map[uuid.UUID]FeeAuthorization{},
	}
}

func (s *stubStore) GetOrCreateUserByWallet(_ context.Context, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[wallet]; ok {
		return u, nil
	}
	u := &models.User{ID: uuid.New(), WalletAddress: wallet}
	s.users[wallet] = u
	return u, nil
}

func (s *stubStore) GetUserByWallet(_ context.Context, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[wallet], nil
}

func (s *stubStore) GetAgentWallet(_ context.Context, userID uuid.UUID) (*models.AgentWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents[userID], nil
}

func (s *stubStore) CreateAgentWallet(_ context.Context, item *models.AgentWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.agents[item.UserID] = item
	return nil
}

func (s *stubStore) UpdateAgentApproval(_ context.Context, userID uuid.UUID, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.agents[userID]; ok {
		a.Approved = approved
	}
	return nil
}

func (s *stubStore) UpdateBuilderAuthorization(_ context.Context, userID uuid.UUID, approved bool, fee int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authUpdates[userID] = FeeAuthorization{Approved: approved, Fee: fee}
	return nil
}

func (s *stubStore) CreateSIP(_ context.Context, item *models.SIP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.sips[item.ID] = item
	return nil
}

func (s *stubStore) GetSIPByID(_ context.Context, id uuid.UUID) (*models.SIP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sips[id], nil
}

func (s *stubStore) ListSIPsByUser(_ context.Context, userID uuid.UUID) ([]models.SIP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SIP
	for _, item := range s.sips {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateSIPStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.sips[id]; ok {
		item.Status = status
	}
	return nil
}

func (s *stubStore) GetDuePlans(_ context.Context, scope repository.PlanScope) ([]repository.DuePlan, error) {
	if s.plansErr != nil {
		return nil, s.plansErr
	}
	if scope.WalletAddress == "" {
		return s.plans, nil
	}
	var out []repository.DuePlan
	for _, p := range s.plans {
		if p.UserWalletAddress == scope.WalletAddress {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) InsertExecutionRecord(_ context.Context, item *models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *item)
	return nil
}

func (s *stubStore) ListExecutionRecords(_ context.Context, _ repository.ListExecutionRecordsParams) ([]models.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ExecutionRecord{}, s.records...), nil
}

// stubMarket serves canned market data. failMidsOnCall makes the Nth
// AllMids call fail (1-based), which simulates a price-fetch outage for
// exactly one plan when the executor runs sequentially.
type stubMarket struct {
	mu             sync.Mutex
	mids           hyperliquid.AllMids
	meta           *hyperliquid.SpotMeta
	fees           map[string]int64
	feeErrs        map[string]error
	midsCalls      int
	failMidsOnCall int
}

func (m *stubMarket) AllMids(ctx context.Context) (hyperliquid.AllMids, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.midsCalls++
	calls := m.midsCalls
	m.mu.Unlock()
	if m.failMidsOnCall > 0 && calls == m.failMidsOnCall {
		return nil, &hyperliquid.APIError{Status: 503, Body: "mids unavailable"}
	}
	return m.mids, nil
}

func (m *stubMarket) SpotMeta(ctx context.Context) (*hyperliquid.SpotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.meta, nil
}

func (m *stubMarket) MaxBuilderFee(ctx context.Context, user, _ string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err, ok := m.feeErrs[user]; ok {
		return 0, err
	}
	return m.fees[user], nil
}

// stubOrders records submissions; onSubmit (optional) fires after each
// accepted order.
type stubOrders struct {
	mu        sync.Mutex
	submitted []hyperliquid.OrderRequest
	err       error
	onSubmit  func()
}

func (o *stubOrders) SubmitSpotBuyIOC(ctx context.Context, req hyperliquid.OrderRequest, key *ecdsa.PrivateKey) (*hyperliquid.OrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.err != nil {
		return nil, o.err
	}
	o.mu.Lock()
	o.submitted = append(o.submitted, req)
	o.mu.Unlock()
	if o.onSubmit != nil {
		o.onSubmit()
	}
	return &hyperliquid.OrderResponse{Status: "ok"}, nil
}
