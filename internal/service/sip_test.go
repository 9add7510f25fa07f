package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hypersip/internal/models"
	"hypersip/internal/vault"
)

func testSIPService(t *testing.T, store *stubStore, market *stubMarket) *SIPService {
	t.Helper()
	v, err := vault.New(testMasterKey)
	if err != nil {
		t.Fatal(err)
	}
	return &SIPService{
		Store:  store,
		Market: market,
		Agents: &AgentService{Store: store, Vault: v, Logger: zap.NewNop()},
		Logger: zap.NewNop(),
	}
}

func TestCreateSIP_ResolvesSpotPairAndProvisionsAgent(t *testing.T) {
	store := newStubStore()
	s := testSIPService(t, store, testMarket())

	item, err := s.Create(context.Background(), CreateSIPParams{
		WalletAddress:     "0xa1",
		AssetName:         "hype",
		MonthlyAmountUSDC: decimal.NewFromInt(3000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.AssetName != "HYPE" {
		t.Errorf("asset name = %q, want canonical %q", item.AssetName, "HYPE")
	}
	if item.AssetIndex != 107 {
		t.Errorf("asset index = %d, want 107", item.AssetIndex)
	}
	if item.Status != models.SIPStatusActive {
		t.Errorf("status = %q", item.Status)
	}

	user := store.users["0xa1"]
	if user == nil {
		t.Fatal("user was not created")
	}
	agent := store.agents[user.ID]
	if agent == nil {
		t.Fatal("agent was not provisioned")
	}
	if agent.Approved {
		t.Error("fresh agent must start unapproved")
	}
	if agent.EncryptedPrivateKey == "" || strings.HasPrefix(agent.EncryptedPrivateKey, "0x") {
		t.Error("agent key stored without encryption")
	}
}

func TestCreateSIP_RejectsBadInput(t *testing.T) {
	store := newStubStore()
	s := testSIPService(t, store, testMarket())

	cases := []struct {
		name   string
		params CreateSIPParams
		want   string
	}{
		{
			name: "zero amount",
			params: CreateSIPParams{
				WalletAddress: "0xa1", AssetName: "HYPE",
			},
			want: "must be positive",
		},
		{
			name: "negative amount",
			params: CreateSIPParams{
				WalletAddress: "0xa1", AssetName: "HYPE",
				MonthlyAmountUSDC: decimal.NewFromInt(-5),
			},
			want: "must be positive",
		},
		{
			name: "unknown asset",
			params: CreateSIPParams{
				WalletAddress: "0xa1", AssetName: "DOGE",
				MonthlyAmountUSDC: decimal.NewFromInt(100),
			},
			want: "unknown asset",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tc.params)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
	if len(store.sips) != 0 {
		t.Errorf("rejected inputs persisted %d plans", len(store.sips))
	}
}

func TestSetStatus_Transitions(t *testing.T) {
	store := newStubStore()
	s := testSIPService(t, store, testMarket())

	item, err := s.Create(context.Background(), CreateSIPParams{
		WalletAddress:     "0xa1",
		AssetName:         "HYPE",
		MonthlyAmountUSDC: decimal.NewFromInt(900),
	})
	if err != nil {
		t.Fatal(err)
	}

	paused, err := s.SetStatus(context.Background(), item.ID, models.SIPStatusPaused)
	if err != nil {
		t.Fatal(err)
	}
	if paused.Status != models.SIPStatusPaused {
		t.Errorf("status = %q", paused.Status)
	}

	resumed, err := s.SetStatus(context.Background(), item.ID, models.SIPStatusActive)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != models.SIPStatusActive {
		t.Errorf("status = %q", resumed.Status)
	}

	if _, err := s.SetStatus(context.Background(), item.ID, models.SIPStatusCancelled); err != nil {
		t.Fatal(err)
	}
	// Cancelled is terminal.
	if _, err := s.SetStatus(context.Background(), item.ID, models.SIPStatusActive); err == nil {
		t.Fatal("cancelled plan was reactivated")
	}
}

func TestEnsureAgent_Idempotent(t *testing.T) {
	store := newStubStore()
	v, err := vault.New(testMasterKey)
	if err != nil {
		t.Fatal(err)
	}
	s := &AgentService{Store: store, Vault: v, Logger: zap.NewNop()}

	first, err := s.EnsureAgent(context.Background(), "0xa1")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Created || first.AgentAddress == "" {
		t.Fatalf("first = %+v", first)
	}

	second, err := s.EnsureAgent(context.Background(), "0xa1")
	if err != nil {
		t.Fatal(err)
	}
	if second.Created {
		t.Error("second call reported a fresh credential")
	}
	if second.AgentAddress != first.AgentAddress {
		t.Errorf("agent address changed: %q vs %q", second.AgentAddress, first.AgentAddress)
	}
	if len(store.agents) != 1 {
		t.Errorf("stored %d agents, want 1", len(store.agents))
	}

	// The stored token must decrypt back to usable key material.
	user := store.users["0xa1"]
	plaintext, err := v.Decrypt(store.agents[user.ID].EncryptedPrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(plaintext, "0x") || len(plaintext) != 66 {
		t.Errorf("decrypted key has unexpected shape (len %d)", len(plaintext))
	}
}

func TestApproveBuilderFee(t *testing.T) {
	store := newStubStore()
	v, err := vault.New(testMasterKey)
	if err != nil {
		t.Fatal(err)
	}
	s := &AgentService{Store: store, Vault: v, Logger: zap.NewNop()}

	if err := s.ApproveBuilderFee(context.Background(), "0xa1", 0); err == nil {
		t.Fatal("zero fee accepted")
	}
	if err := s.ApproveBuilderFee(context.Background(), "0xa1", 1500); err != nil {
		t.Fatal(err)
	}
	user := store.users["0xa1"]
	if user == nil {
		t.Fatal("approval did not create the user")
	}
	if a := store.authUpdates[user.ID]; !a.Approved || a.Fee != 1500 {
		t.Fatalf("authorization = %+v", a)
	}
}
