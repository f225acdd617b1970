package reclaim

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// RequestConfig - Signed proof-request template handed to the
// verification app so the user can mint a proof for a provider
type RequestConfig struct {
	AppID       string `json:"applicationId"`
	ProviderID  string `json:"providerId"`
	SessionID   string `json:"sessionId"`
	Context     string `json:"context"`
	CallbackURL string `json:"callbackUrl"`
	Signature   string `json:"signature"`
	RequestURL  string `json:"requestUrl"`
}

// RequestBuilder - Mints signed proof-request configs. This is a thin
// passthrough to the proof-issuance side of the protocol; the payout
// pipeline never consumes what it produces directly.
type RequestBuilder struct {
	appID       string
	appSecret   *ecdsa.PrivateKey
	callbackURL string
}

// NewRequestBuilder - appSecretHex is the application's secp256k1 key in hex
func NewRequestBuilder(appID, appSecretHex, callbackURL string) (*RequestBuilder, error) {
	if appID == "" {
		return nil, fmt.Errorf("app id required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(appSecretHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid app secret: %w", err)
	}
	return &RequestBuilder{appID: appID, appSecret: key, callbackURL: callbackURL}, nil
}

// GenerateConfig - Build a proof request for the given provider, binding
// the user's wallet address into the claim context so the resulting
// proof carries its own payout destination
func (b *RequestBuilder) GenerateConfig(providerID, userAddress string) (*RequestConfig, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider id required")
	}
	if userAddress == "" {
		return nil, fmt.Errorf("user address required")
	}

	ctxJSON, err := json.Marshal(map[string]string{
		"contextAddress": userAddress,
		"contextMessage": userAddress,
	})
	if err != nil {
		return nil, err
	}

	cfg := &RequestConfig{
		AppID:       b.appID,
		ProviderID:  providerID,
		SessionID:   uuid.NewString(),
		Context:     string(ctxJSON),
		CallbackURL: b.callbackURL,
	}

	canonical, err := json.Marshal(map[string]any{
		"applicationId": cfg.AppID,
		"providerId":    cfg.ProviderID,
		"sessionId":     cfg.SessionID,
		"context":       cfg.Context,
		"timestamp":     time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(canonical), b.appSecret)
	if err != nil {
		return nil, fmt.Errorf("sign request config: %w", err)
	}
	cfg.Signature = "0x" + hex.EncodeToString(sig)

	template, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	cfg.RequestURL = "https://share.reclaimprotocol.org/verifier/?template=" + url.QueryEscape(string(template))
	return cfg, nil
}
