package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config - Process-wide configuration, loaded once at startup and immutable after
type Config struct {
	Port string

	// Solana
	RPCURL        string
	WSURL         string
	Network       string // mainnet, devnet, testnet
	SenderSecret  string // base58 private key of the payout wallet
	TokenMint     string
	TokenDecimals uint8 // 0 means fetch from the mint account at startup

	// Reclaim
	AppID            string
	AppSecret        string // hex secp256k1 key
	Witnesses        []string
	CallbackURL      string
	ProviderAmazon   string
	ProviderFlipkart string

	// Operational
	OperatorToken string
	ReplayWindow  time.Duration // 0 disables the replay guard
	DedupDSN      string
}

// Load - Read configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		RPCURL:           getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		WSURL:            getEnv("SOLANA_WS_URL", "wss://api.devnet.solana.com"),
		Network:          getEnv("SOLANA_NETWORK", "devnet"),
		SenderSecret:     os.Getenv("SENDER_SECRET_KEY"),
		TokenMint:        os.Getenv("REWARD_TOKEN_MINT"),
		AppID:            os.Getenv("RECLAIM_APP_ID"),
		AppSecret:        os.Getenv("RECLAIM_APP_SECRET"),
		CallbackURL:      os.Getenv("RECLAIM_CALLBACK_URL"),
		ProviderAmazon:   os.Getenv("RECLAIM_PROVIDER_AMAZON"),
		ProviderFlipkart: os.Getenv("RECLAIM_PROVIDER_FLIPKART"),
		OperatorToken:    os.Getenv("OPERATOR_TOKEN"),
		DedupDSN:         getEnv("DEDUP_DSN", "proofpay.db"),
	}

	if cfg.SenderSecret == "" {
		return nil, fmt.Errorf("SENDER_SECRET_KEY is required")
	}
	if cfg.TokenMint == "" {
		return nil, fmt.Errorf("REWARD_TOKEN_MINT is required")
	}

	decimals, err := getEnvUint("REWARD_TOKEN_DECIMALS", 9)
	if err != nil {
		return nil, err
	}
	if decimals > 18 {
		return nil, fmt.Errorf("REWARD_TOKEN_DECIMALS out of range: %d", decimals)
	}
	cfg.TokenDecimals = uint8(decimals)

	windowSecs, err := getEnvUint("REPLAY_WINDOW", 600)
	if err != nil {
		return nil, err
	}
	cfg.ReplayWindow = time.Duration(windowSecs) * time.Second

	if raw := os.Getenv("RECLAIM_WITNESSES"); raw != "" {
		for _, w := range strings.Split(raw, ",") {
			if w = strings.TrimSpace(w); w != "" {
				cfg.Witnesses = append(cfg.Witnesses, w)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
