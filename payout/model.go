package payout

import (
	"encoding/json"
	"net/http"

	"proofpay/chainsol"
)

// PayoutResponse - Successful pipeline result
type PayoutResponse struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message"`
	Transaction *chainsol.TransferResult `json:"transaction"`
}

// TransferTokensRequest - Pre-extracted payout request for the direct
// transfer endpoint; classification and verification are the caller's
// responsibility
type TransferTokensRequest struct {
	Amount   string          `json:"amount"`
	Address  string          `json:"address"`
	Platform string          `json:"platform"`
	Proof    json.RawMessage `json:"proof,omitempty"`
}

// GenerateConfigRequest - Proof-request minting input
type GenerateConfigRequest struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// Helper functions
func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	resp := errorResponse{Error: message}
	if status >= http.StatusInternalServerError {
		success := false
		resp.Success = &success
	}
	respondJSON(w, resp, status)
}
