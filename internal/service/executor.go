package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hypersip/internal/client/hyperliquid"
	"hypersip/internal/config"
	"hypersip/internal/models"
	"hypersip/internal/pricing"
	"hypersip/internal/repository"
	"hypersip/internal/vault"
)

// Per-plan failure kinds. All of them are recoverable at the run level:
// the plan is recorded and the batch continues.
const (
	FailureAuthorization = "authorization"
	FailureMarketData    = "market_data"
	FailureValidation    = "validation"
	FailureCredential    = "credential"
	FailureSubmission    = "submission"
)

type PlanError struct {
	SIPID     uuid.UUID `json:"sip_id"`
	AssetName string    `json:"asset_name"`
	Error     string    `json:"error"`
}

type BatchResult struct {
	TotalPlans   int         `json:"total_plans"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Errors       []PlanError `json:"errors"`
}

// planOutcome is the per-plan result variant: a plan either submitted
// successfully or carries one classified failure. Plans transition at
// most once per run.
type planOutcome struct {
	plan     repository.DuePlan
	ok       bool
	skipped  bool
	kind     string
	err      error
	price    float64
	size     string
	notional decimal.Decimal
	raw      []byte
}

// BatchExecutor runs one execution pass over due plans. Dependencies are
// injected; the executor holds no hidden global state.
type BatchExecutor struct {
	Store   repository.Store
	Market  MarketDataGateway
	Orders  OrderGateway
	Vault   *vault.Vault
	FeeSync *FeeSyncService
	Logger  *zap.Logger
	Config  config.ExecutorConfig
	Builder config.BuilderConfig
}

// RunForAllUsers executes all active plans across all users.
func (e *BatchExecutor) RunForAllUsers(ctx context.Context) (*BatchResult, error) {
	return e.run(ctx, repository.PlanScope{})
}

// RunForUser executes all active plans owned by one wallet address.
func (e *BatchExecutor) RunForUser(ctx context.Context, walletAddress string) (*BatchResult, error) {
	return e.run(ctx, repository.PlanScope{WalletAddress: walletAddress})
}

// run loads the candidate set, refreshes fee authorization, and processes
// each plan in isolation. Failing to load the candidate set is the only
// run-level error. A cancelled run still returns the aggregate for plans
// that completed before cancellation, alongside the context error.
func (e *BatchExecutor) run(ctx context.Context, scope repository.PlanScope) (*BatchResult, error) {
	plans, err := e.Store.GetDuePlans(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load due plans: %w", err)
	}
	e.Logger.Info("batch run starting",
		zap.Int("plans", len(plans)),
		zap.String("scope_wallet", scope.WalletAddress),
	)

	result := &BatchResult{TotalPlans: len(plans), Errors: []PlanError{}}
	if len(plans) == 0 {
		return result, nil
	}

	// Refresh authorization once per run, before any order. The synced
	// values are applied to the already-loaded candidates so gating and
	// stored state agree within this run.
	if e.FeeSync != nil {
		users := make([]UserRef, 0, len(plans))
		for _, p := range plans {
			users = append(users, UserRef{UserID: p.UserID, WalletAddress: p.UserWalletAddress})
		}
		auth := e.FeeSync.SyncUsers(ctx, users)
		for i := range plans {
			if a, ok := auth[plans[i].UserID]; ok {
				plans[i].BuilderApproved = a.Approved
				plans[i].BuilderFee = a.Fee
			}
		}
	}

	outcomes := e.processPlans(ctx, plans)

	for _, out := range outcomes {
		if out == nil {
			// Plan was never processed (run cancelled first); it is not
			// counted as success or failure.
			continue
		}
		e.record(out)
		if out.ok {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		result.Errors = append(result.Errors, PlanError{
			SIPID:     out.plan.ID,
			AssetName: out.plan.AssetName,
			Error:     out.err.Error(),
		})
	}

	e.Logger.Info("batch run complete",
		zap.Int("total", result.TotalPlans),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// processPlans fans plans out to a bounded worker pool (size 1 by
// default, preserving plan order). Each outcome lands in its plan's slot,
// so aggregation order matches plan order regardless of pool size, and
// each plan is attempted at most once.
func (e *BatchExecutor) processPlans(ctx context.Context, plans []repository.DuePlan) []*planOutcome {
	workers := e.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(plans) {
		workers = len(plans)
	}

	outcomes := make([]*planOutcome, len(plans))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = e.executePlan(ctx, plans[idx])
			}
		}()
	}

	for i := range plans {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

// executePlan derives, validates, and submits one order. Every failure is
// caught here and classified; nothing propagates to the batch.
func (e *BatchExecutor) executePlan(parent context.Context, plan repository.DuePlan) *planOutcome {
	out := &planOutcome{plan: plan}

	// Gate on builder-fee authorization before touching the exchange.
	if !plan.BuilderApproved || plan.BuilderFee <= 0 {
		out.skipped = true
		out.kind = FailureAuthorization
		out.err = fmt.Errorf("builder fee authorization missing for user %s", plan.UserWalletAddress)
		return out
	}
	if plan.BuilderFee < e.Builder.MinFeeTenthBps {
		out.skipped = true
		out.kind = FailureAuthorization
		out.err = fmt.Errorf("builder fee %d below minimum threshold %d", plan.BuilderFee, e.Builder.MinFeeTenthBps)
		return out
	}

	ctx := parent
	if e.Config.PlanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, e.Config.PlanTimeout)
		defer cancel()
	}

	mids, err := e.Market.AllMids(ctx)
	if err != nil {
		out.kind = FailureMarketData
		out.err = fmt.Errorf("fetch mids: %w", err)
		return out
	}
	meta, err := e.Market.SpotMeta(ctx)
	if err != nil {
		out.kind = FailureMarketData
		out.err = fmt.Errorf("fetch spot meta: %w", err)
		return out
	}

	midStr, ok := mids.SpotMid(plan.AssetIndex)
	if !ok {
		out.kind = FailureMarketData
		out.err = fmt.Errorf("price not found for %s (@%d)", plan.AssetName, plan.AssetIndex)
		return out
	}
	mid, err := strconv.ParseFloat(midStr, 64)
	if err != nil || mid <= 0 {
		out.kind = FailureMarketData
		out.err = fmt.Errorf("invalid mid price %q for %s", midStr, plan.AssetName)
		return out
	}
	token, ok := meta.TokenByName(plan.AssetName)
	if !ok {
		out.kind = FailureMarketData
		out.err = fmt.Errorf("asset metadata not found for %s", plan.AssetName)
		return out
	}

	// Monthly notional split into per-run amounts.
	perExecution := plan.MonthlyAmountUSDC.Div(decimal.NewFromInt(e.Config.ExecutionsPerMonth))

	// Buffer the mid so the IOC buy crosses the spread, then apply the
	// venue's price format.
	buffered := mid * (1 + e.Config.PriceBufferPct)
	price := pricing.FormatPrice(buffered, token.SzDecimals, true)
	// A mid below the pair's fractional-digit cap formats to zero; such a
	// price cannot be ordered at and would divide by zero below.
	if price <= 0 {
		out.kind = FailureValidation
		out.err = fmt.Errorf("price %s formats to zero at %d size decimals for %s",
			midStr, token.SzDecimals, plan.AssetName)
		return out
	}
	size := pricing.CalculateOrderSize(perExecution.InexactFloat64(), price, token.SzDecimals)

	minNotional := decimal.NewFromFloat(e.Config.MinOrderNotional)
	if err := pricing.ValidateOrderValue(size, price, minNotional); err != nil {
		out.kind = FailureValidation
		out.err = err
		return out
	}

	// The decrypted key lives only inside this call path.
	plaintext, err := e.Vault.Decrypt(plan.EncryptedPrivateKey)
	if err != nil {
		out.kind = FailureCredential
		out.err = fmt.Errorf("decrypt agent credential: %w", err)
		return out
	}
	key, err := hyperliquid.ParsePrivateKeyHex(plaintext)
	if err != nil {
		out.kind = FailureCredential
		out.err = fmt.Errorf("parse agent credential: %w", err)
		return out
	}

	resp, err := e.Orders.SubmitSpotBuyIOC(ctx, hyperliquid.OrderRequest{
		AssetIndex:         plan.AssetIndex,
		Price:              pricing.PriceString(price),
		Size:               size,
		BuilderAddress:     e.Builder.Address,
		BuilderFeeTenthBps: plan.BuilderFee,
	}, key)
	if resp != nil {
		out.raw = resp.Raw
	}
	if err != nil {
		out.kind = FailureSubmission
		out.err = fmt.Errorf("submit order: %w", err)
		return out
	}

	out.ok = true
	out.price = price
	out.size = size
	out.notional = perExecution
	return out
}

// record logs the outcome and persists it for audit. Persistence is
// best-effort; a storage hiccup must not turn a submitted order into a
// batch failure.
func (e *BatchExecutor) record(out *planOutcome) {
	rec := &models.ExecutionRecord{
		SIPID:     out.plan.ID,
		UserID:    out.plan.UserID,
		AssetName: out.plan.AssetName,
	}
	switch {
	case out.ok:
		rec.Status = models.ExecutionStatusFilled
		rec.Price = decimal.NewFromFloat(out.price)
		rec.Size = out.size
		rec.NotionalUSD = out.notional
		e.Logger.Info("plan executed",
			zap.String("sip_id", out.plan.ID.String()),
			zap.String("asset", out.plan.AssetName),
			zap.String("size", out.size),
			zap.Float64("price", out.price),
		)
	case out.skipped:
		rec.Status = models.ExecutionStatusSkipped
		rec.FailureReason = out.err.Error()
		e.Logger.Warn("plan skipped",
			zap.String("sip_id", out.plan.ID.String()),
			zap.String("asset", out.plan.AssetName),
			zap.String("kind", out.kind),
			zap.Error(out.err),
		)
	default:
		rec.Status = models.ExecutionStatusFailed
		rec.FailureReason = out.err.Error()
		// Credential failures may indicate data corruption or a key
		// rotation mismatch; raise them above the usual per-plan noise.
		if out.kind == FailureCredential {
			e.Logger.Error("plan failed",
				zap.String("sip_id", out.plan.ID.String()),
				zap.String("asset", out.plan.AssetName),
				zap.String("kind", out.kind),
				zap.Error(out.err),
			)
		} else {
			e.Logger.Warn("plan failed",
				zap.String("sip_id", out.plan.ID.String()),
				zap.String("asset", out.plan.AssetName),
				zap.String("kind", out.kind),
				zap.Error(out.err),
			)
		}
	}
	if len(out.raw) > 0 {
		rec.RawResponse = datatypes.JSON(out.raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Store.InsertExecutionRecord(ctx, rec); err != nil {
		e.Logger.Warn("persist execution record failed",
			zap.String("sip_id", out.plan.ID.String()),
			zap.Error(err),
		)
	}
}
