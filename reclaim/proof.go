package reclaim

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Parser errors
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMalformedProof      = errors.New("malformed proof")
)

// Platform - Source platform of a loyalty-balance proof
type Platform int

const (
	PlatformUnsupported Platform = iota
	PlatformAmazon
	PlatformFlipkart
)

func (p Platform) String() string {
	switch p {
	case PlatformAmazon:
		return "amazon"
	case PlatformFlipkart:
		return "flipkart"
	default:
		return "unsupported"
	}
}

// PlatformFromString - Parse a platform name as sent by pre-extracted requests
func PlatformFromString(s string) Platform {
	switch strings.ToLower(s) {
	case "amazon":
		return PlatformAmazon
	case "flipkart":
		return PlatformFlipkart
	default:
		return PlatformUnsupported
	}
}

// Rupee glyph prefix as HTML entity, emitted by the Amazon provider
const rupeeEntity = "&#x20b9;"

// ClaimData - Signed claim carried inside a proof envelope.
// Parameters and Context are JSON strings, kept raw so the signed
// bytes stay untouched for verification.
type ClaimData struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Owner      string `json:"owner"`
	TimestampS int64  `json:"timestampS"`
	Context    string `json:"context"`
	Identifier string `json:"identifier"`
	Epoch      int64  `json:"epoch"`
}

// Proof - Envelope issued by the verification protocol. Untrusted input
// until the verifier accepts it; fields are only read after classification.
type Proof struct {
	ClaimData  ClaimData `json:"claimData"`
	Signatures []string  `json:"signatures"`
}

// claimParameters - Decoded shape of ClaimData.Parameters
type claimParameters struct {
	URL                 string            `json:"url"`
	ExtractedParameters map[string]string `json:"extractedParameters"`
}

// claimContext - Decoded shape of ClaimData.Context
type claimContext struct {
	ContextAddress string `json:"contextAddress"`
	ContextMessage string `json:"contextMessage"`
}

// Reward - Amount and destination extracted from a classified proof
type Reward struct {
	Amount   string
	Address  string
	Platform Platform
}

// Classify - Determine the source platform from the proof's request URL.
// Matching is an exact substring check with no fallback: an URL that
// names neither platform is rejected outright.
func Classify(p *Proof) (Platform, error) {
	params, err := p.parameters()
	if err != nil {
		return PlatformUnsupported, err
	}
	switch {
	case strings.Contains(params.URL, "amazon"):
		return PlatformAmazon, nil
	case strings.Contains(params.URL, "flipkart"):
		return PlatformFlipkart, nil
	default:
		return PlatformUnsupported, fmt.Errorf("%w: url %q", ErrUnsupportedPlatform, params.URL)
	}
}

// Extract - Pull the reward amount and destination address out of a
// classified proof. The amount encoding differs per platform; the
// destination wallet always rides in the context message.
func Extract(p *Proof, platform Platform) (*Reward, error) {
	params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	ctx, err := p.context()
	if err != nil {
		return nil, err
	}

	reward := &Reward{Address: ctx.ContextMessage, Platform: platform}
	switch platform {
	case PlatformAmazon:
		reward.Amount = strings.TrimPrefix(params.ExtractedParameters["balance"], rupeeEntity)
	case PlatformFlipkart:
		reward.Amount = params.ExtractedParameters["text"]
	default:
		return nil, ErrUnsupportedPlatform
	}
	return reward, nil
}

// ReplayKey - Content-derived idempotency key for deduplicating
// resubmissions of the same proof
func (p *Proof) ReplayKey() string {
	h := crypto.Keccak256([]byte(p.ClaimData.Identifier + "|" + p.ClaimData.Owner))
	return hex.EncodeToString(h)
}

func (p *Proof) parameters() (*claimParameters, error) {
	if p.ClaimData.Parameters == "" {
		return nil, fmt.Errorf("%w: missing claim parameters", ErrMalformedProof)
	}
	var params claimParameters
	if err := json.Unmarshal([]byte(p.ClaimData.Parameters), &params); err != nil {
		return nil, fmt.Errorf("%w: parameters: %v", ErrMalformedProof, err)
	}
	return &params, nil
}

func (p *Proof) context() (*claimContext, error) {
	if p.ClaimData.Context == "" {
		return nil, fmt.Errorf("%w: missing claim context", ErrMalformedProof)
	}
	var ctx claimContext
	if err := json.Unmarshal([]byte(p.ClaimData.Context), &ctx); err != nil {
		return nil, fmt.Errorf("%w: context: %v", ErrMalformedProof, err)
	}
	return &ctx, nil
}
