package chainsol

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// Engine - Drives reward token transfers from the configured payout
// wallet. One instance per process; safe for concurrent Transfer calls,
// each fetches its own blockhash and submits independently.
type Engine struct {
	http     *rpc.Client
	ws       *ws.Client
	sender   solana.PrivateKey
	mint     solana.PublicKey
	decimals uint8
	network  string // mainnet, devnet, testnet
}

type Config struct {
	RPCURL       string
	WSURL        string
	Network      string
	SenderSecret string // base58
	TokenMint    string
	// TokenDecimals of 0 means read the decimal count from the mint
	// account via ResolveDecimals before the first transfer.
	TokenDecimals uint8
}

// NewEngine - Initialize the Solana transfer engine
func NewEngine(ctx context.Context, config Config) (*Engine, error) {
	if config.Network == "" {
		config.Network = "mainnet"
	}
	sender, err := solana.PrivateKeyFromBase58(config.SenderSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid sender secret key: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(config.TokenMint)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint: %w", err)
	}
	wss, err := ws.Connect(ctx, config.WSURL)
	if err != nil {
		return nil, fmt.Errorf("connect websocket rpc: %w", err)
	}

	return &Engine{
		http:     rpc.New(config.RPCURL),
		ws:       wss,
		sender:   sender,
		mint:     mint,
		decimals: config.TokenDecimals,
		network:  config.Network,
	}, nil
}

// ResolveDecimals - Read the token's decimal count from the mint account
// when it was not configured
func (e *Engine) ResolveDecimals(ctx context.Context) error {
	if e.decimals != 0 {
		return nil
	}
	acct, err := e.http.GetAccountInfo(ctx, e.mint)
	if err != nil {
		return fmt.Errorf("failed to get mint account: %w", err)
	}
	if acct.Value == nil {
		return fmt.Errorf("mint account %s not found", e.mint)
	}
	var m token.Mint
	if err := m.UnmarshalWithDecoder(bin.NewBinDecoder(acct.Value.Data.GetBinary())); err != nil {
		return fmt.Errorf("failed to decode mint account: %w", err)
	}
	e.decimals = m.Decimals
	return nil
}

// Decimals - Token decimal count in effect
func (e *Engine) Decimals() uint8 {
	return e.decimals
}

// SenderAddress - Public key of the payout wallet
func (e *Engine) SenderAddress() solana.PublicKey {
	return e.sender.PublicKey()
}

// ExplorerURL - Generate explorer URL
func (e *Engine) ExplorerURL(signature string) string {
	baseURL := "https://explorer.solana.com/tx/"
	switch e.network {
	case "devnet":
		return baseURL + signature + "?cluster=devnet"
	case "testnet":
		return baseURL + signature + "?cluster=testnet"
	default:
		return baseURL + signature
	}
}

// Health check
func (e *Engine) HealthCheck() error {
	_, err := e.http.GetHealth(context.Background())
	return err
}
