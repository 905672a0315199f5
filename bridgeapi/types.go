// Package bridgeapi implements the typed client of the bridge backend api.
package bridgeapi

// ChainCommonConfig common part of per network chain config
type ChainCommonConfig struct {
	MinSwapAmount float64 `json:"minSwapAmount"`
	MaxSwapAmount float64 `json:"maxSwapAmount"`
}

// ChainWccxConfig wccx side of per network chain config
type ChainWccxConfig struct {
	AccountAddress  string `json:"accountAddress"`
	ChainID         uint64 `json:"chainId"`
	Confirmations   uint64 `json:"confirmations"`
	ContractAddress string `json:"contractAddress"`
	Units           uint64 `json:"units"`
}

// ChainCcxConfig ccx side of per network chain config
type ChainCcxConfig struct {
	AccountAddress string `json:"accountAddress"`
	Units          uint64 `json:"units"`
}

// ChainTxConfig tx related part of per network chain config
type ChainTxConfig struct {
	GasMultiplier float64 `json:"gasMultiplier"`
}

// ChainConfig per network bridge configuration fetched from the backend.
// Immutable once fetched, cached per network for the session.
type ChainConfig struct {
	Common ChainCommonConfig `json:"common"`
	Wccx   ChainWccxConfig   `json:"wccx"`
	Ccx    ChainCcxConfig    `json:"ccx"`
	Tx     ChainTxConfig     `json:"tx"`
}

// GasResult result of estimateGas and getGasPrice
type GasResult struct {
	Result bool    `json:"result"`
	Gas    float64 `json:"gas"`
}

// BalanceResult result of balance queries
type BalanceResult struct {
	Result  bool    `json:"result"`
	Balance float64 `json:"balance"`
}

// EstimateGasRequest request of estimateGas
type EstimateGasRequest struct {
	Amount float64 `json:"amount"`
}

// CcxToWccxInitRequest request of ccx->wccx swap init.
// TxFeeHash is the hash of the gas fee payment on the EVM chain.
type CcxToWccxInitRequest struct {
	Amount      float64 `json:"amount"`
	ToAddress   string  `json:"toAddress"`
	FromAddress string  `json:"fromAddress"`
	TxFeeHash   string  `json:"txfeehash"`
	Email       string  `json:"email,omitempty"`
}

// WccxToCcxInitRequest request of wccx->ccx swap init.
// TxHash is the hash of the wccx transfer to the bridge account.
type WccxToCcxInitRequest struct {
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	TxHash      string  `json:"txHash"`
	Amount      float64 `json:"amount"`
	Email       string  `json:"email,omitempty"`
}

// SwapInitResult result of swap init calls
type SwapInitResult struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SwapExecRequest request of wccx->ccx swap exec
type SwapExecRequest struct {
	PaymentID string `json:"paymentId"`
	Email     string `json:"email,omitempty"`
}

// SwapExecResult result of swap exec
type SwapExecResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SwapTxData settlement data of a completed swap
type SwapTxData struct {
	Swaped      float64 `json:"swaped"`
	Address     string  `json:"address"`
	SwapHash    string  `json:"swapHash"`
	DepositHash string  `json:"depositHash"`
}

// SwapStatusRequest request of swap status check
type SwapStatusRequest struct {
	PaymentID string `json:"paymentId"`
}

// SwapStatusResult result of swap status check.
// Result false with no error means the swap is not yet complete.
type SwapStatusResult struct {
	Result bool        `json:"result"`
	TxData *SwapTxData `json:"txdata,omitempty"`
}

// IsComplete reports whether the status payload carries settlement data
func (r *SwapStatusResult) IsComplete() bool {
	return r.Result && r.TxData != nil
}
