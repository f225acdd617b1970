package chainsol

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Engine error categories. Callers branch on these with errors.Is; the
// wrapped message carries the readable cause.
var (
	ErrInvalidAddress      = errors.New("invalid recipient address")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAccountCreation     = errors.New("token account creation failed")
	ErrTransferExecution   = errors.New("transfer execution failed")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

var (
	customErrPattern = regexp.MustCompile(`"Custom":\s*"?(\d+)"?`)
	hexErrPattern    = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
)

// ParseTransferError - Turn a raw Solana RPC error into a readable
// description for responses and broadcasts
func ParseTransferError(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	// Blockhash expired between fetch and submission
	if strings.Contains(errStr, "BlockhashNotFound") ||
		strings.Contains(errStr, "Blockhash not found") {
		return "transaction expired: blockhash no longer valid"
	}

	if code := extractErrorCode(errStr); code != nil {
		return fmt.Sprintf("ledger rejected transaction with program error code %d", *code)
	}

	if strings.Contains(errStr, "insufficient funds") ||
		strings.Contains(errStr, "insufficient lamports") {
		return "insufficient sender balance"
	}

	if strings.Contains(errStr, "simulation failed") {
		return "transaction simulation failed"
	}

	if len(errStr) > 300 {
		return errStr[:300] + "..."
	}
	return errStr
}

// extractErrorCode - Pull a custom program error code out of the error
// string; RPC nodes report it either as JSON or as hex
func extractErrorCode(errStr string) *int {
	if matches := customErrPattern.FindStringSubmatch(errStr); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return &code
		}
	}
	if matches := hexErrPattern.FindStringSubmatch(errStr); len(matches) > 1 {
		if code, err := strconv.ParseInt(matches[1], 16, 64); err == nil {
			intCode := int(code)
			return &intCode
		}
	}
	return nil
}
