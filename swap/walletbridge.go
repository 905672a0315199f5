package swap

import (
	"context"
	"math/big"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

// Wallet is what the orchestrator needs from the wallet layer
type Wallet interface {
	Address() string
	IsConnected() bool
	Connect(ctx context.Context) (string, error)
	EnsureChain(ctx context.Context, chain *params.Network) error
	SendNativeTransaction(ctx context.Context, args *wallet.NativeTransferArgs) (string, error)
	Erc20Balance(ctx context.Context, chain *params.Network, token, account string) (*big.Int, error)
	Erc20Transfer(ctx context.Context, chain *params.Network, token, to string, amount *big.Int) (string, error)
	WaitForReceipt(ctx context.Context, chain *params.Network, txHash string, confirmations uint64) error
	WatchAsset(ctx context.Context, watchParams *wallet.WatchAssetParams) error
}

// AdapterWallet adapts *wallet.Adapter to the Wallet interface
type AdapterWallet struct {
	Adapter *wallet.Adapter
}

// Address implements Wallet
func (w *AdapterWallet) Address() string {
	return w.Adapter.State().Address
}

// IsConnected implements Wallet
func (w *AdapterWallet) IsConnected() bool {
	return w.Adapter.IsConnected()
}

// Connect implements Wallet
func (w *AdapterWallet) Connect(ctx context.Context) (string, error) {
	return w.Adapter.Connect(ctx)
}

// EnsureChain implements Wallet
func (w *AdapterWallet) EnsureChain(ctx context.Context, chain *params.Network) error {
	return w.Adapter.EnsureChain(ctx, chain)
}

// SendNativeTransaction implements Wallet
func (w *AdapterWallet) SendNativeTransaction(ctx context.Context, args *wallet.NativeTransferArgs) (string, error) {
	return w.Adapter.SendNativeTransaction(ctx, args)
}

// Erc20Balance implements Wallet
func (w *AdapterWallet) Erc20Balance(ctx context.Context, chain *params.Network, token, account string) (*big.Int, error) {
	clients, err := w.Adapter.Clients(chain, nil)
	if err != nil {
		return nil, err
	}
	return clients.Erc20Balance(ctx, token, account)
}

// Erc20Transfer implements Wallet
func (w *AdapterWallet) Erc20Transfer(ctx context.Context, chain *params.Network, token, to string, amount *big.Int) (string, error) {
	clients, err := w.Adapter.Clients(chain, nil)
	if err != nil {
		return "", err
	}
	return clients.Erc20Transfer(ctx, token, to, amount)
}

// WaitForReceipt implements Wallet
func (w *AdapterWallet) WaitForReceipt(ctx context.Context, chain *params.Network, txHash string, confirmations uint64) error {
	clients, err := w.Adapter.Clients(chain, nil)
	if err != nil {
		return err
	}
	_, err = clients.WaitForReceipt(ctx, txHash, confirmations)
	return err
}

// WatchAsset implements Wallet
func (w *AdapterWallet) WatchAsset(ctx context.Context, watchParams *wallet.WatchAssetParams) error {
	return w.Adapter.WatchAsset(ctx, watchParams)
}
