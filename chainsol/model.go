package chainsol

// TransferResult - Outcome of a completed reward transfer. Created once
// per request, returned synchronously and optionally broadcast; never
// persisted.
type TransferResult struct {
	Success        bool   `json:"success"`
	Signature      string `json:"signature"`
	TransactionURL string `json:"transactionUrl"`
	Amount         string `json:"amount"`
}
