package rpcapi

import (
	"net/http"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/internal/swapapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/swap"
)

// BridgeSwapAPI rpc api handler
type BridgeSwapAPI struct{}

// RPCNullArgs null args
type RPCNullArgs struct{}

// SwapKeyArgs args identifying one swap session
type SwapKeyArgs struct {
	Direction  string `json:"direction"`
	NetworkKey string `json:"network"`
}

// GetVersionInfo api
func (s *BridgeSwapAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *string) error {
	*result = swapapi.GetVersionInfo()
	return nil
}

// GetServerInfo api
func (s *BridgeSwapAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *swapapi.ServerInfo) error {
	serverInfo := swapapi.GetServerInfo()
	*result = *serverInfo
	return nil
}

// GetNetworks api
func (s *BridgeSwapAPI) GetNetworks(r *http.Request, args *RPCNullArgs, result *[]*swapapi.NetworkInfo) error {
	*result = swapapi.GetNetworks()
	return nil
}

// GetChainConfig api
func (s *BridgeSwapAPI) GetChainConfig(r *http.Request, args *string, result *bridgeapi.ChainConfig) error {
	chainConfig, err := swapapi.GetChainConfig(*args)
	if err != nil {
		return err
	}
	*result = *chainConfig
	return nil
}

// GetWalletState api
func (s *BridgeSwapAPI) GetWalletState(r *http.Request, args *RPCNullArgs, result *swapapi.WalletInfo) error {
	*result = *swapapi.GetWalletState()
	return nil
}

// SubmitSwap api
func (s *BridgeSwapAPI) SubmitSwap(r *http.Request, args *swapapi.SubmitSwapArgs, result *swapapi.SubmitSwapResult) error {
	res, err := swapapi.SubmitSwap(args)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetSwapStatus api
func (s *BridgeSwapAPI) GetSwapStatus(r *http.Request, args *SwapKeyArgs, result *swapapi.SessionStatus) error {
	res, err := swapapi.GetSwapStatus(args.Direction, args.NetworkKey)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// ResetSwap api
func (s *BridgeSwapAPI) ResetSwap(r *http.Request, args *SwapKeyArgs, result *swapapi.SessionStatus) error {
	res, err := swapapi.ResetSwap(args.Direction, args.NetworkKey)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetSwapHistoryArgs args
type GetSwapHistoryArgs struct {
	NetworkKey string `json:"network"`
	Address    string `json:"address,omitempty"`
	Limit      int    `json:"limit"`
}

// GetSwapHistory api
func (s *BridgeSwapAPI) GetSwapHistory(r *http.Request, args *GetSwapHistoryArgs, result *[]*swap.Record) error {
	var res []*swap.Record
	var err error
	if args.Address != "" {
		res, err = swapapi.GetSwapHistoryByAddress(args.Address, args.Limit)
	} else {
		res, err = swapapi.GetSwapHistory(args.NetworkKey, args.Limit)
	}
	if err == nil && res != nil {
		*result = res
	}
	return err
}
