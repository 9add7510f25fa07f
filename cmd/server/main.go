package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hypersip/internal/client/hyperliquid"
	"hypersip/internal/config"
	cronrunner "hypersip/internal/cron"
	"hypersip/internal/db"
	"hypersip/internal/handler"
	"hypersip/internal/logger"
	gormrepository "hypersip/internal/repository/gorm"
	"hypersip/internal/service"
	"hypersip/internal/vault"
)

func main() {
	cfgPath := os.Getenv("HSIP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("HSIP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.Ping(dbConn); err != nil {
		logger.Fatal("db unreachable", zap.Error(err))
	}
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	// A misconfigured master key means no credential can ever be
	// decrypted; refuse to start.
	keyVault, err := vault.New(cfg.Vault.MasterKey)
	if err != nil {
		logger.Fatal("vault init failed", zap.Error(err))
	}

	hlBaseURL := hyperliquid.BaseURL(cfg.Hyperliquid.BaseURL, cfg.Hyperliquid.Testnet)
	logger.Info("hyperliquid endpoint selected",
		zap.String("base_url", hlBaseURL),
		zap.Bool("testnet", cfg.Hyperliquid.Testnet),
	)
	hlHTTP := &http.Client{Timeout: cfg.Hyperliquid.Timeout}
	infoClient := hyperliquid.NewInfoClient(hlHTTP, hlBaseURL)
	exchangeClient := hyperliquid.NewExchangeClient(hlHTTP, hlBaseURL)
	store := gormrepository.New(dbConn.Gorm)

	agentService := &service.AgentService{
		Store:  store,
		Vault:  keyVault,
		Logger: logger,
	}
	sipService := &service.SIPService{
		Store:  store,
		Market: infoClient,
		Agents: agentService,
		Logger: logger,
	}
	feeSync := &service.FeeSyncService{
		Store:          store,
		Market:         infoClient,
		Logger:         logger,
		BuilderAddress: cfg.Builder.Address,
	}
	executor := &service.BatchExecutor{
		Store:   store,
		Market:  infoClient,
		Orders:  exchangeClient,
		Vault:   keyVault,
		FeeSync: feeSync,
		Logger:  logger,
		Config:  cfg.Executor,
		Builder: cfg.Builder,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	agentHandler := &handler.AgentHandler{Agents: agentService}
	agentHandler.Register(engine)
	sipHandler := &handler.SIPHandler{SIPs: sipService}
	sipHandler.Register(engine)
	balanceHandler := &handler.BalanceHandler{Info: infoClient}
	balanceHandler.Register(engine)
	executionHandler := &handler.ExecutionHandler{Store: store}
	executionHandler.Register(engine)
	executeHandler := &handler.ExecuteHandler{
		Executor:      executor,
		TriggerSecret: cfg.Server.TriggerSecret,
	}
	executeHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.Execute, func(ctx context.Context) {
			result, err := executor.RunForAllUsers(ctx)
			if err != nil {
				logger.Warn("cron batch execution failed", zap.Error(err))
				return
			}
			logger.Info("cron batch execution ok",
				zap.Int("total", result.TotalPlans),
				zap.Int("success", result.SuccessCount),
				zap.Int("failed", result.FailureCount),
			)
		})
		if err != nil {
			logger.Warn("cron register batch execution failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,api_key")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
