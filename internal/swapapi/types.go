package swapapi

import (
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/swap"
)

// ServerInfo server info
type ServerInfo struct {
	Identifier string   `json:"identifier"`
	Version    string   `json:"version"`
	Networks   []string `json:"networks"`
}

// NetworkInfo chain descriptor of one supported network
type NetworkInfo struct {
	Key         string `json:"key"`
	ChainID     uint64 `json:"chainId"`
	Label       string `json:"label"`
	Symbol      string `json:"symbol"`
	ExplorerURL string `json:"explorerUrl"`
	Enabled     bool   `json:"enabled"`
}

// WalletInfo wallet adapter state
type WalletInfo struct {
	Connected   bool   `json:"connected"`
	Address     string `json:"address,omitempty"`
	ChainID     uint64 `json:"chainId,omitempty"`
	ConnectorID string `json:"connectorId,omitempty"`
}

// SessionStatus swap session snapshot
type SessionStatus struct {
	Direction     swap.Direction        `json:"direction"`
	NetworkKey    string                `json:"network"`
	Step          int                   `json:"step"`
	IsBusy        bool                  `json:"isBusy"`
	PaymentID     string                `json:"paymentId,omitempty"`
	EvmTxHash     string                `json:"evmTxHash,omitempty"`
	SwapState     *bridgeapi.SwapTxData `json:"swapState,omitempty"`
	StatusMessage string                `json:"statusMessage,omitempty"`
	PageError     string                `json:"pageError,omitempty"`
	PollingError  string                `json:"pollingError,omitempty"`
}

// SubmitSwapArgs args of swap submission
type SubmitSwapArgs struct {
	Direction   string  `json:"direction"`
	NetworkKey  string  `json:"network"`
	Amount      float64 `json:"amount"`
	FromAddress string  `json:"fromAddress,omitempty"`
	ToAddress   string  `json:"toAddress"`
	Email       string  `json:"email,omitempty"`
}

// SubmitSwapResult result of swap submission
type SubmitSwapResult struct {
	Accepted bool           `json:"accepted"`
	Status   *SessionStatus `json:"status"`
}
