package reclaim

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Verifier - Checks proof envelope authenticity against the witness set
// published by the verification protocol. The envelope must be passed
// through whole and unaltered; the verifier does no field extraction.
type Verifier struct {
	witnesses map[common.Address]bool
}

// NewVerifier - Build a verifier trusting the given witness addresses
func NewVerifier(witnessAddrs []string) (*Verifier, error) {
	if len(witnessAddrs) == 0 {
		return nil, fmt.Errorf("at least one witness address required")
	}
	witnesses := make(map[common.Address]bool, len(witnessAddrs))
	for _, w := range witnessAddrs {
		if !common.IsHexAddress(w) {
			return nil, fmt.Errorf("invalid witness address: %q", w)
		}
		witnesses[common.HexToAddress(w)] = true
	}
	return &Verifier{witnesses: witnesses}, nil
}

// Verify - Return whether the proof is authentic. A clean signature
// mismatch is (false, nil); malformed signature material is an error.
func (v *Verifier) Verify(p *Proof) (bool, error) {
	if len(p.Signatures) == 0 {
		return false, nil
	}

	// The identifier commits to the claim content; recompute and compare
	// before trusting any of it.
	expected := ClaimIdentifier(p.ClaimData.Provider, p.ClaimData.Parameters, p.ClaimData.Context)
	if !strings.EqualFold(expected, p.ClaimData.Identifier) {
		return false, nil
	}

	digest := accounts.TextHash(claimMessage(&p.ClaimData))
	for _, sigHex := range p.Signatures {
		sig, err := decodeSignature(sigHex)
		if err != nil {
			return false, err
		}
		pub, err := crypto.SigToPub(digest, sig)
		if err != nil {
			return false, fmt.Errorf("recover signer: %w", err)
		}
		if !v.witnesses[crypto.PubkeyToAddress(*pub)] {
			return false, nil
		}
	}
	return true, nil
}

// ClaimIdentifier - Keccak commitment over the claim's content fields
func ClaimIdentifier(provider, parameters, context string) string {
	h := crypto.Keccak256([]byte(provider + "\n" + parameters + "\n" + context))
	return "0x" + hex.EncodeToString(h)
}

// claimMessage - Canonical byte serialization the witnesses sign
func claimMessage(c *ClaimData) []byte {
	return []byte(strings.Join([]string{
		strings.ToLower(c.Identifier),
		strings.ToLower(c.Owner),
		strconv.FormatInt(c.TimestampS, 10),
		strconv.FormatInt(c.Epoch, 10),
	}, "\n"))
}

func decodeSignature(sigHex string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != crypto.SignatureLength {
		return nil, fmt.Errorf("invalid signature length: %d", len(raw))
	}
	// Ethereum tooling emits V as 27/28; SigToPub expects 0/1
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	return raw, nil
}
