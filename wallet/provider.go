// Package wallet normalizes interaction with EVM wallet providers behind
// one stable adapter interface. All signing happens inside the provider;
// the adapter never touches key material.
package wallet

import (
	"context"
	"encoding/json"
)

// standard provider request methods
const (
	MethodChainID         = "eth_chainId"
	MethodAccounts        = "eth_accounts"
	MethodRequestAccounts = "eth_requestAccounts"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodWatchAsset      = "wallet_watchAsset"
	MethodSendTransaction = "eth_sendTransaction"
	MethodCall            = "eth_call"
	MethodBlockNumber     = "eth_blockNumber"
	MethodGetReceipt      = "eth_getTransactionReceipt"
	MethodClientVersion   = "web3_clientVersion"
	MethodRevokePerms     = "wallet_revokePermissions"
)

// provider event types
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnected    = "disconnect"
)

// Event provider originated state change notification
type Event struct {
	Type     string
	Accounts []string // EventAccountsChanged
	ChainID  string   // EventChainChanged, quantity hex form
}

// Provider is the request/response surface of one wallet.
// Implementations must return *RPCError for wallet originated
// failures so error codes survive classification.
type Provider interface {
	// Request performs one rpc call and returns the raw json result
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
	// Subscribe registers an event channel; the returned func detaches it.
	// Events are dropped, not blocked on, when the channel is full.
	Subscribe(events chan<- Event) (unsubscribe func())
	// Close tears down the provider transport
	Close() error
}

// SwitchChainParams params of wallet_switchEthereumChain
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// AddChainParams params of wallet_addEthereumChain
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// NativeCurrency chain native currency metadata
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint   `json:"decimals"`
}

// WatchAssetParams params of wallet_watchAsset
type WatchAssetParams struct {
	Type    string           `json:"type"`
	Options WatchAssetOption `json:"options"`
}

// WatchAssetOption token metadata of wallet_watchAsset
type WatchAssetOption struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint   `json:"decimals"`
	Image    string `json:"image,omitempty"`
}

// SendTransactionParams params of eth_sendTransaction
type SendTransactionParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value,omitempty"` // quantity hex
	Data  string `json:"data,omitempty"`  // unformatted data hex
	Gas   string `json:"gas,omitempty"`   // quantity hex
}

// CallParams params of eth_call
type CallParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// TxReceipt minimal receipt info used for confirmation counting
type TxReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"` // quantity hex
	Status          string `json:"status"`      // quantity hex, 0x1 is success
}
