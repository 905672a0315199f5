package swapapi

import (
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/swap"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

func convertNetwork(network *params.Network) *NetworkInfo {
	return &NetworkInfo{
		Key:         network.Key,
		ChainID:     network.ChainID.Uint64(),
		Label:       network.Label,
		Symbol:      network.Symbol,
		ExplorerURL: network.ExplorerURL,
		Enabled:     params.IsNetworkEnabled(network.Key),
	}
}

func convertSession(swapCtx *swap.Context, snapshot swap.Snapshot) *SessionStatus {
	return &SessionStatus{
		Direction:     swapCtx.Direction,
		NetworkKey:    swapCtx.NetworkKey,
		Step:          int(snapshot.Step),
		IsBusy:        snapshot.IsBusy,
		PaymentID:     snapshot.PaymentID,
		EvmTxHash:     snapshot.EvmTxHash,
		SwapState:     snapshot.SwapState,
		StatusMessage: snapshot.StatusMessage,
		PageError:     snapshot.PageError,
		PollingError:  snapshot.PollingError,
	}
}

func convertWalletState(state wallet.State) *WalletInfo {
	info := &WalletInfo{
		Connected:   state.IsConnected(),
		Address:     state.Address,
		ConnectorID: state.ConnectorID,
	}
	if state.ChainID != nil {
		info.ChainID = state.ChainID.Uint64()
	}
	return info
}
