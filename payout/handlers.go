package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proofpay/chainsol"
	"proofpay/reclaim"
	"proofpay/wshub"
)

const maxBodySize = 1 << 20

// HandleReceiveProofs - POST /receive-proofs
// Body is a URL-escaped JSON proof envelope. Runs the full pipeline:
// decode, classify, replay-guard, verify, extract, transfer, notify.
func (s *Service) HandleReceiveProofs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := uuid.NewString()
	log := s.log.With(zap.String("request_id", reqID))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	decoded, err := url.QueryUnescape(string(body))
	if err != nil {
		respondError(w, "invalid proof payload encoding", http.StatusBadRequest)
		return
	}
	var proof reclaim.Proof
	if err := json.Unmarshal([]byte(decoded), &proof); err != nil {
		respondError(w, "invalid proof payload", http.StatusBadRequest)
		return
	}

	platform, err := reclaim.Classify(&proof)
	if err != nil {
		log.Info("proof rejected", zap.Error(err))
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("platform", platform.String()))

	if s.guard != nil {
		ok, err := s.guard.Reserve(proof.ReplayKey())
		if err != nil {
			log.Error("replay guard failed", zap.Error(err))
			respondError(w, "replay check failed", http.StatusInternalServerError)
			return
		}
		if !ok {
			respondError(w, "duplicate proof submission", http.StatusConflict)
			return
		}
	}

	// Verification comes before any trust in extracted fields.
	valid, err := s.verifier.Verify(&proof)
	if err != nil {
		log.Error("proof verification errored", zap.Error(err))
		s.hub.Broadcast(wshub.Notice{Type: "error", Content: "proof verification failed: " + err.Error()})
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !valid {
		log.Info("proof verification returned false")
		s.hub.Broadcast(wshub.Notice{Type: "error", Content: "proof failed verification"})
		respondError(w, "proof failed verification", http.StatusInternalServerError)
		return
	}

	reward, err := reclaim.Extract(&proof, platform)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if reward.Amount == "" || reward.Address == "" {
		respondError(w, "proof is missing reward amount or destination address", http.StatusBadRequest)
		return
	}

	result, err := s.transfer(r.Context(), reward.Amount, reward.Address)
	if err != nil {
		log.Error("transfer failed", zap.String("amount", reward.Amount), zap.Error(err))
		s.hub.Broadcast(wshub.Notice{Type: "error", Content: "token transfer failed: " + err.Error()})
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info("payout complete",
		zap.String("amount", reward.Amount),
		zap.String("signature", result.Signature))
	s.hub.Broadcast(wshub.Notice{
		Type:    "agent",
		Content: fmt.Sprintf("Transferred %s tokens for your %s rewards! %s", result.Amount, platform, result.TransactionURL),
	})
	respondJSON(w, PayoutResponse{
		Success:     true,
		Message:     "proof verified and tokens transferred",
		Transaction: result,
	}, http.StatusOK)
}

// HandleTransferTokens - POST /transfer-tokens
// Trusts its caller completely: amount and address arrive pre-extracted
// and no proof verification happens here. This is a separate trust
// boundary from /receive-proofs and is gated by the operator token.
func (s *Service) HandleTransferTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.operatorToken == "" || r.Header.Get("X-Operator-Token") != s.operatorToken {
		respondError(w, "operator token required", http.StatusForbidden)
		return
	}

	var req TransferTokensRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount == "" || req.Address == "" {
		respondError(w, "amount and address are required", http.StatusBadRequest)
		return
	}
	platform := reclaim.PlatformFromString(req.Platform)
	if req.Platform != "" && platform == reclaim.PlatformUnsupported {
		respondError(w, "unsupported platform: "+req.Platform, http.StatusBadRequest)
		return
	}

	result, err := s.transfer(r.Context(), req.Amount, req.Address)
	if err != nil {
		s.log.Error("direct transfer failed",
			zap.String("platform", platform.String()), zap.Error(err))
		s.hub.Broadcast(wshub.Notice{Type: "error", Content: "token transfer failed: " + err.Error()})
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(wshub.Notice{
		Type:    "agent",
		Content: fmt.Sprintf("Transferred %s tokens. %s", result.Amount, result.TransactionURL),
	})
	respondJSON(w, PayoutResponse{
		Success:     true,
		Message:     "tokens transferred",
		Transaction: result,
	}, http.StatusOK)
}

// HandleGenerateConfigAmazon - POST /reclaim/generate-config-amazon
func (s *Service) HandleGenerateConfigAmazon(w http.ResponseWriter, r *http.Request) {
	s.handleGenerateConfig(w, r, s.providerAmazon)
}

// HandleGenerateConfigFlipkart - POST /reclaim/generate-config-flipkart
func (s *Service) HandleGenerateConfigFlipkart(w http.ResponseWriter, r *http.Request) {
	s.handleGenerateConfig(w, r, s.providerFlipkart)
}

func (s *Service) handleGenerateConfig(w http.ResponseWriter, r *http.Request, providerID string) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.requests == nil {
		respondError(w, "proof requests are not configured", http.StatusServiceUnavailable)
		return
	}
	var req GenerateConfigRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		respondError(w, "address is required", http.StatusBadRequest)
		return
	}
	cfg, err := s.requests.GenerateConfig(providerID, req.Address)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, cfg, http.StatusOK)
}

// transfer - Run the engine under the per-request deadline so no chain
// suspension point is unbounded
func (s *Service) transfer(ctx context.Context, amount, address string) (*chainsol.TransferResult, error) {
	tctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()
	return s.engine.Transfer(tctx, amount, address)
}
