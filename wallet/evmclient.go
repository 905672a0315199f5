package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

// erc20 function selectors
const (
	erc20BalanceOfSelector = "0x70a08231"
	erc20TransferSelector  = "0xa9059cbb"
)

var receiptPollInterval = 5 * time.Second

// ErrTxReverted transaction included with failure status
var ErrTxReverted = fmt.Errorf("transaction reverted")

// Clients chain-scoped contract call handles on top of a provider.
// Obtained from Adapter.Clients, not constructed directly.
type Clients struct {
	chain    *params.Network
	provider Provider
	from     string
}

// Chain the target chain descriptor
func (c *Clients) Chain() *params.Network {
	return c.chain
}

// Erc20Balance call erc20 balanceOf
func (c *Clients) Erc20Balance(ctx context.Context, token, account string) (*big.Int, error) {
	data := erc20BalanceOfSelector + packAddress(account)
	raw, err := c.provider.Request(ctx, MethodCall, &CallParams{To: token, Data: data}, "latest")
	if err != nil {
		return nil, err
	}
	return parseQuantity(raw)
}

// Erc20Transfer send an erc20 transfer through the wallet,
// returns the transaction hash
func (c *Clients) Erc20Transfer(ctx context.Context, token, to string, amount *big.Int) (string, error) {
	data := erc20TransferSelector + packAddress(to) + packBig(amount)
	raw, err := c.provider.Request(ctx, MethodSendTransaction, &SendTransactionParams{
		From: c.from,
		To:   token,
		Data: data,
	})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return "", fmt.Errorf("wrong send transaction result: %w", err)
	}
	log.Info("sent erc20 transfer", "network", c.chain.Key, "token", token, "to", to, "amount", amount, "txHash", txHash)
	return txHash, nil
}

// BlockNumber latest block number
func (c *Clients) BlockNumber(ctx context.Context) (*big.Int, error) {
	raw, err := c.provider.Request(ctx, MethodBlockNumber)
	if err != nil {
		return nil, err
	}
	return parseQuantity(raw)
}

// TransactionReceipt get receipt of a transaction, nil when pending
func (c *Clients) TransactionReceipt(ctx context.Context, txHash string) (*TxReceipt, error) {
	raw, err := c.provider.Request(ctx, MethodGetReceipt, txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt TxReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("wrong receipt result: %w", err)
	}
	return &receipt, nil
}

// WaitForReceipt block until the transaction has the wanted number of
// confirmations or ctx is done. A confirmation count of 1 means mined.
func (c *Clients) WaitForReceipt(ctx context.Context, txHash string, confirmations uint64) (*TxReceipt, error) {
	if confirmations == 0 {
		confirmations = 1
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status != "" && receipt.Status != "0x1" {
				return receipt, fmt.Errorf("%w: %v", ErrTxReverted, txHash)
			}
			height, err := common.GetBigIntFromStr(receipt.BlockNumber)
			if err == nil {
				latest, errl := c.BlockNumber(ctx)
				if errl != nil {
					return nil, errl
				}
				confirmed := new(big.Int).Sub(latest, height)
				confirmed.Add(confirmed, big.NewInt(1))
				if confirmed.Sign() > 0 && confirmed.Uint64() >= confirmations {
					log.Info("transaction confirmed", "network", c.chain.Key, "txHash", txHash, "confirmations", confirmed)
					return receipt, nil
				}
				log.Trace("waiting confirmations", "txHash", txHash, "have", confirmed, "want", confirmations)
			}
		}
		timer.Reset(receiptPollInterval)
	}
}

func packAddress(addr string) string {
	hexstr := strings.TrimPrefix(strings.ToLower(addr), "0x")
	return strings.Repeat("0", 64-len(hexstr)) + hexstr
}

func packBig(value *big.Int) string {
	return fmt.Sprintf("%064x", value)
}
