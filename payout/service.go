package payout

import (
	"context"
	"time"

	"go.uber.org/zap"

	"proofpay/chainsol"
	"proofpay/reclaim"
	"proofpay/wshub"
)

const defaultTransferTimeout = 90 * time.Second

// Verifier - Authenticity check over the full proof envelope
type Verifier interface {
	Verify(p *reclaim.Proof) (bool, error)
}

// TransferEngine - Executes one reward payout per call
type TransferEngine interface {
	Transfer(ctx context.Context, amount string, recipientAddress string) (*chainsol.TransferResult, error)
}

// Broadcaster - Best-effort observer notification; must never block
type Broadcaster interface {
	Broadcast(n wshub.Notice)
}

// ReplayGuard - Rejects duplicate proof submissions inside a window
type ReplayGuard interface {
	Reserve(key string) (bool, error)
}

// Service - The proof-to-payout orchestrator. Collaborators are injected
// so every pipeline stage can be exercised without a live chain or
// transport behind it.
type Service struct {
	verifier Verifier
	engine   TransferEngine
	hub      Broadcaster
	guard    ReplayGuard
	requests *reclaim.RequestBuilder

	providerAmazon   string
	providerFlipkart string
	operatorToken    string
	transferTimeout  time.Duration
	log              *zap.Logger
}

type Params struct {
	Verifier Verifier
	Engine   TransferEngine
	Hub      Broadcaster
	Guard    ReplayGuard
	// Requests may be nil; the generate-config endpoints then report
	// the proof-request collaborator as unconfigured.
	Requests         *reclaim.RequestBuilder
	ProviderAmazon   string
	ProviderFlipkart string
	OperatorToken    string
	TransferTimeout  time.Duration
	Log              *zap.Logger
}

func NewService(p Params) *Service {
	if p.TransferTimeout == 0 {
		p.TransferTimeout = defaultTransferTimeout
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	return &Service{
		verifier:         p.Verifier,
		engine:           p.Engine,
		hub:              p.Hub,
		guard:            p.Guard,
		requests:         p.Requests,
		providerAmazon:   p.ProviderAmazon,
		providerFlipkart: p.ProviderFlipkart,
		operatorToken:    p.OperatorToken,
		transferTimeout:  p.TransferTimeout,
		log:              p.Log,
	}
}
