package chainsol

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	confirm "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
)

// Transfer - Execute a single reward payout: amount tokens (decimal
// string) from the payout wallet to recipientAddress, creating the
// recipient's associated token account if it does not exist yet.
// At most one transfer submission happens per call; there is no retry.
func (e *Engine) Transfer(ctx context.Context, amount string, recipientAddress string) (*TransferResult, error) {
	recipient, err := solana.PublicKeyFromBase58(recipientAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, recipientAddress, err)
	}
	baseUnits, err := ToBaseUnits(amount, e.decimals)
	if err != nil {
		return nil, err
	}

	// Associated token accounts derive deterministically from the wallet
	// and the mint; no network call needed here.
	senderATA, _, err := solana.FindAssociatedTokenAddress(e.sender.PublicKey(), e.mint)
	if err != nil {
		return nil, fmt.Errorf("derive sender token account: %w", err)
	}
	recipientATA, _, err := solana.FindAssociatedTokenAddress(recipient, e.mint)
	if err != nil {
		return nil, fmt.Errorf("%w: derive recipient token account: %v", ErrInvalidAddress, err)
	}

	if err := e.ensureTokenAccount(ctx, recipient, recipientATA); err != nil {
		return nil, err
	}

	instruction := token.NewTransferInstruction(
		baseUnits,
		senderATA,
		recipientATA,
		e.sender.PublicKey(),
		nil,
	).Build()

	sig, err := e.submit(ctx, []solana.Instruction{instruction})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: transfer of %s to %s", ErrConfirmationTimeout, amount, recipientAddress)
		}
		return nil, fmt.Errorf("%w: %s", ErrTransferExecution, ParseTransferError(err))
	}

	return &TransferResult{
		Success:        true,
		Signature:      sig.String(),
		TransactionURL: e.ExplorerURL(sig.String()),
		Amount:         amount,
	}, nil
}

// ensureTokenAccount - Create the recipient's associated token account,
// funded by the payout wallet, when it does not exist on chain
func (e *Engine) ensureTokenAccount(ctx context.Context, wallet, ata solana.PublicKey) error {
	acct, err := e.http.GetAccountInfo(ctx, ata)
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		return fmt.Errorf("%w: lookup %s: %v", ErrAccountCreation, ata, err)
	}
	if err == nil && acct.Value != nil {
		return nil
	}

	instruction := associatedtokenaccount.NewCreateInstruction(
		e.sender.PublicKey(),
		wallet,
		e.mint,
	).Build()

	if _, err := e.submit(ctx, []solana.Instruction{instruction}); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: create token account for %s", ErrConfirmationTimeout, wallet)
		}
		return fmt.Errorf("%w: %s", ErrAccountCreation, ParseTransferError(err))
	}
	return nil
}

// submit - Build, sign and send one transaction, waiting for confirmation.
// A fresh blockhash is fetched per submission so concurrent transfers
// never share a stale reference.
func (e *Engine) submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	recent, err := e.http.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(e.sender.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if e.sender.PublicKey().Equals(key) {
			return &e.sender
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := confirm.SendAndConfirmTransaction(ctx, e.http, e.ws, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}
