package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"proofpay/chainsol"
	"proofpay/config"
	"proofpay/dedup"
	"proofpay/payout"
	"proofpay/reclaim"
	"proofpay/wshub"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Transfer engine
	engine, err := chainsol.NewEngine(ctx, chainsol.Config{
		RPCURL:        cfg.RPCURL,
		WSURL:         cfg.WSURL,
		Network:       cfg.Network,
		SenderSecret:  cfg.SenderSecret,
		TokenMint:     cfg.TokenMint,
		TokenDecimals: cfg.TokenDecimals,
	})
	if err != nil {
		sugar.Fatalf("❌ Solana engine init failed: %v", err)
	}
	if err := engine.HealthCheck(); err != nil {
		sugar.Fatalf("❌ Solana health check failed: %v", err)
	}
	if err := engine.ResolveDecimals(ctx); err != nil {
		sugar.Fatalf("❌ Failed to resolve token decimals: %v", err)
	}

	// Proof verifier
	verifier, err := reclaim.NewVerifier(cfg.Witnesses)
	if err != nil {
		sugar.Fatalf("❌ Verifier init failed: %v", err)
	}

	// Proof-request minting is optional; without app credentials the
	// generate-config endpoints report themselves unconfigured.
	var requests *reclaim.RequestBuilder
	if cfg.AppID != "" && cfg.AppSecret != "" {
		requests, err = reclaim.NewRequestBuilder(cfg.AppID, cfg.AppSecret, cfg.CallbackURL)
		if err != nil {
			sugar.Fatalf("❌ Request builder init failed: %v", err)
		}
	}

	// Replay guard
	guard, err := dedup.Open(cfg.DedupDSN, cfg.ReplayWindow)
	if err != nil {
		sugar.Fatalf("❌ Replay guard init failed: %v", err)
	}

	// Observer hub
	hub := wshub.NewHub(logger)

	service := payout.NewService(payout.Params{
		Verifier:         verifier,
		Engine:           engine,
		Hub:              hub,
		Guard:            guard,
		Requests:         requests,
		ProviderAmazon:   cfg.ProviderAmazon,
		ProviderFlipkart: cfg.ProviderFlipkart,
		OperatorToken:    cfg.OperatorToken,
		Log:              logger,
	})

	// Routes
	http.HandleFunc("/receive-proofs", service.HandleReceiveProofs)
	http.HandleFunc("/transfer-tokens", service.HandleTransferTokens)
	http.HandleFunc("/reclaim/generate-config-amazon", service.HandleGenerateConfigAmazon)
	http.HandleFunc("/reclaim/generate-config-flipkart", service.HandleGenerateConfigFlipkart)
	http.HandleFunc("/ws", hub.ServeWS)

	// Health endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	sugar.Infof("🚀 Payout server starting on port %s", cfg.Port)
	sugar.Infof("✅ Solana %s connected, payout wallet %s", cfg.Network, engine.SenderAddress())
	sugar.Infof("✅ Reward token %s (%d decimals)", cfg.TokenMint, engine.Decimals())
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		sugar.Fatal(err)
	}
}
