package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pborman/uuid"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

// Backend is what the orchestrator needs from the bridge api client
type Backend interface {
	EstimateGas(networkKey string, amount float64) (float64, error)
	GetGasPrice(networkKey string) (float64, error)
	GetCcxBalance(networkKey string) (float64, error)
	GetWccxBalance(networkKey string) (float64, error)
	InitCcxToWccxSwap(networkKey string, req *bridgeapi.CcxToWccxInitRequest) (*bridgeapi.SwapInitResult, error)
	InitWccxToCcxSwap(networkKey string, req *bridgeapi.WccxToCcxInitRequest) (*bridgeapi.SwapInitResult, error)
	ExecWccxToCcxSwap(networkKey string, req *bridgeapi.SwapExecRequest) (*bridgeapi.SwapExecResult, error)
	GetCcxToWccxStatus(networkKey, paymentID string) (*bridgeapi.SwapStatusResult, error)
	GetWccxToCcxStatus(networkKey, paymentID string) (*bridgeapi.SwapStatusResult, error)
}

// Orchestrator drives the multi-step swap protocol of one session.
// It is the single writer of the session and the single point that
// converts low level failures into user facing status text.
type Orchestrator struct {
	swapCtx  *Context
	session  *Session
	wallet   Wallet
	backend  Backend
	recorder Recorder
	notifier Notifier
	poller   *Poller

	mu          sync.Mutex
	lastRequest *Request
	lastSwapID  string
}

// Option configures an orchestrator
type Option func(*Orchestrator)

// WithRecorder set the history collaborator
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) { o.recorder = recorder }
}

// WithNotifier set the notification collaborator
func WithNotifier(notifier Notifier) Option {
	return func(o *Orchestrator) { o.notifier = notifier }
}

// WithPoller set a custom poller (test hooks, interval overrides)
func WithPoller(poller *Poller) Option {
	return func(o *Orchestrator) { o.poller = poller }
}

// NewOrchestrator new orchestrator for one swap context
func NewOrchestrator(swapCtx *Context, walletSvc Wallet, backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		swapCtx:  swapCtx,
		session:  NewSession(),
		wallet:   walletSvc,
		backend:  backend,
		recorder: NopRecorder{},
		notifier: LogNotifier{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.poller == nil {
		o.poller = NewPoller(DefaultSuccessInterval, PollingBackoffConfig(0))
	}
	return o
}

// Session the session driven by this orchestrator
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Context the swap context of this orchestrator
func (o *Orchestrator) Context() *Context {
	return o.swapCtx
}

// Reset return to step 0 and cancel any in-flight polling.
// Usable at any time.
func (o *Orchestrator) Reset() {
	o.poller.Stop()
	o.mu.Lock()
	o.lastRequest = nil
	o.lastSwapID = ""
	o.mu.Unlock()
	s := o.session
	s.mutate(func() {
		s.step = StepCollectInput
		s.isBusy = false
		s.paymentID = ""
		s.evmTxHash = ""
		s.swapState = nil
		s.statusMessage = ""
		s.pageError = ""
		s.pollingError = ""
	})
	log.Info("swap session reset", "direction", o.swapCtx.Direction, "network", o.swapCtx.NetworkKey)
}

// Close tears down the orchestrator, cancelling any polling
func (o *Orchestrator) Close() {
	o.poller.Stop()
}

// Submit run the swap protocol of the configured direction up to the
// awaiting-confirmation step, then start status polling. Returns on
// the first failure with the session back at step 0 and not busy.
func (o *Orchestrator) Submit(ctx context.Context, req *Request) error {
	if err := req.Validate(o.swapCtx); err != nil {
		o.setPageError(err)
		return err
	}
	if err := o.beginBusy(); err != nil {
		return err
	}
	defer o.clearBusy()

	swapID := uuid.NewRandom().String()
	o.mu.Lock()
	o.lastRequest = req
	o.lastSwapID = swapID
	o.mu.Unlock()
	log.Info("begin swap submission", "swapID", swapID, "direction", o.swapCtx.Direction, "network", o.swapCtx.NetworkKey, "amount", req.Amount)

	var err error
	switch o.swapCtx.Direction {
	case DirectionCcxToEvm:
		err = o.submitCcxToEvm(ctx, req)
	case DirectionEvmToCcx:
		err = o.submitEvmToCcx(ctx, req)
	default:
		err = fmt.Errorf("%w: '%v'", ErrInvalidDirection, o.swapCtx.Direction)
	}
	if err != nil {
		o.setPageError(err)
		log.Warn("swap submit failed", "direction", o.swapCtx.Direction, "network", o.swapCtx.NetworkKey, "err", err)
	}
	return err
}

func (o *Orchestrator) submitCcxToEvm(ctx context.Context, req *Request) error {
	chainCfg := o.swapCtx.Config

	if err := o.checkLiquidity(req.Amount, o.backend.GetWccxBalance); err != nil {
		return err
	}
	if err := o.connectAndEnsureChain(ctx); err != nil {
		return err
	}

	o.setStatus("Estimating network fee...")
	gasEstimate, err := o.backend.EstimateGas(o.swapCtx.NetworkKey, req.Amount)
	if err != nil {
		return err
	}
	gasPrice, err := o.backend.GetGasPrice(o.swapCtx.NetworkKey)
	if err != nil {
		return err
	}
	feeValue := o.nativeFeeValue(gasEstimate, gasPrice)

	o.setStatus("Confirm the fee payment in your wallet...")
	txHash, err := o.wallet.SendNativeTransaction(ctx, &wallet.NativeTransferArgs{
		Chain: o.swapCtx.Chain,
		To:    chainCfg.Wccx.AccountAddress,
		Value: feeValue,
	})
	if err != nil {
		return err
	}
	o.setEvmTxHash(txHash)

	o.setStatus("Waiting for fee payment confirmations...")
	if err := o.wallet.WaitForReceipt(ctx, o.swapCtx.Chain, txHash, chainCfg.Wccx.Confirmations); err != nil {
		return err
	}

	result, err := o.backend.InitCcxToWccxSwap(o.swapCtx.NetworkKey, &bridgeapi.CcxToWccxInitRequest{
		Amount:      req.Amount,
		ToAddress:   req.ToAddress,
		FromAddress: req.FromAddress,
		TxFeeHash:   txHash,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return backendError(result.Error)
	}

	o.enterAwaitConfirm(ctx, result.PaymentID,
		fmt.Sprintf("Swap registered. Send %v CCX to %v to complete the deposit. Payment id: %v",
			req.Amount, chainCfg.Ccx.AccountAddress, result.PaymentID),
		o.backend.GetCcxToWccxStatus)
	return nil
}

func (o *Orchestrator) submitEvmToCcx(ctx context.Context, req *Request) error {
	chainCfg := o.swapCtx.Config

	if err := o.checkLiquidity(req.Amount, o.backend.GetCcxBalance); err != nil {
		return err
	}
	if err := o.connectAndEnsureChain(ctx); err != nil {
		return err
	}
	fromAddress := o.wallet.Address()

	amountUnits := common.BigFromUnits(req.Amount, chainCfg.Wccx.Units)
	balance, err := o.wallet.Erc20Balance(ctx, o.swapCtx.Chain, chainCfg.Wccx.ContractAddress, fromAddress)
	if err != nil {
		return err
	}
	if balance.Cmp(amountUnits) < 0 {
		have := common.FloatFromUnits(balance, chainCfg.Wccx.Units)
		return fmt.Errorf("%w: have %v wCCX, need %v", ErrInsufficientBalance, have, req.Amount)
	}

	o.setStatus("Confirm the token transfer in your wallet...")
	txHash, err := o.wallet.Erc20Transfer(ctx, o.swapCtx.Chain, chainCfg.Wccx.ContractAddress, chainCfg.Wccx.AccountAddress, amountUnits)
	if err != nil {
		return err
	}
	o.setEvmTxHash(txHash)

	o.setStatus("Waiting for transfer confirmations...")
	if err := o.wallet.WaitForReceipt(ctx, o.swapCtx.Chain, txHash, chainCfg.Wccx.Confirmations); err != nil {
		return err
	}

	result, err := o.backend.InitWccxToCcxSwap(o.swapCtx.NetworkKey, &bridgeapi.WccxToCcxInitRequest{
		FromAddress: fromAddress,
		ToAddress:   req.ToAddress,
		TxHash:      txHash,
		Amount:      req.Amount,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return backendError(result.Error)
	}
	o.setPaymentID(result.PaymentID)

	// the native leg is released only after an explicit execute.
	// on failure the payment id stays recorded for manual follow-up.
	execResult, err := o.backend.ExecWccxToCcxSwap(o.swapCtx.NetworkKey, &bridgeapi.SwapExecRequest{
		PaymentID: result.PaymentID,
		Email:     req.Email,
	})
	if err != nil {
		return fmt.Errorf("swap execute failed, keep payment id %v for support: %w", result.PaymentID, err)
	}
	if !execResult.Success {
		return fmt.Errorf("swap execute rejected, keep payment id %v for support: %w", result.PaymentID, backendError(execResult.Error))
	}

	o.enterAwaitConfirm(ctx, result.PaymentID,
		fmt.Sprintf("Swap in progress. Payment id: %v", result.PaymentID),
		o.backend.GetWccxToCcxStatus)
	return nil
}

// checkLiquidity rejects a swap the bridge cannot settle. A fetch
// failure degrades to a log line, the backend is the source of truth
// and re-checks at init time.
func (o *Orchestrator) checkLiquidity(amount float64, fetch func(networkKey string) (float64, error)) error {
	balance, err := fetch(o.swapCtx.NetworkKey)
	if err != nil {
		log.Warn("liquidity check skipped", "network", o.swapCtx.NetworkKey, "err", err)
		return nil
	}
	if balance < amount {
		log.Warn("bridge liquidity below requested amount", "network", o.swapCtx.NetworkKey, "balance", balance, "amount", amount)
		return fmt.Errorf("%w: bridge holds %v, requested %v", ErrInsufficientLiquidity, balance, amount)
	}
	return nil
}

func (o *Orchestrator) connectAndEnsureChain(ctx context.Context) error {
	o.setStatus("Connecting wallet...")
	if !o.wallet.IsConnected() {
		if _, err := o.wallet.Connect(ctx); err != nil {
			return err
		}
	}
	return o.wallet.EnsureChain(ctx, o.swapCtx.Chain)
}

// nativeFeeValue fee in wei, scaled by the configured gas multiplier
func (o *Orchestrator) nativeFeeValue(gasEstimate, gasPrice float64) *big.Int {
	multiplier := o.swapCtx.Config.Tx.GasMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	fee := new(big.Float).SetFloat64(gasEstimate * gasPrice * multiplier)
	value, _ := fee.Int(nil)
	return value
}

func (o *Orchestrator) enterAwaitConfirm(ctx context.Context, paymentID, message string, fetch func(networkKey, paymentID string) (*bridgeapi.SwapStatusResult, error)) {
	s := o.session
	s.mutate(func() {
		s.paymentID = paymentID
		s.step = StepAwaitConfirm
		s.statusMessage = message
		s.pageError = ""
		s.pollingError = ""
	})
	log.Info("swap registered", "direction", o.swapCtx.Direction, "network", o.swapCtx.NetworkKey, "paymentID", paymentID)

	o.poller.Start(ctx, paymentID, func(paymentID string) (*bridgeapi.SwapStatusResult, error) {
		return fetch(o.swapCtx.NetworkKey, paymentID)
	}, PollEvents{
		OnComplete:  o.onPollComplete,
		OnTransient: o.onPollTransient,
		OnExhausted: o.onPollExhausted,
	})
}

func (o *Orchestrator) onPollComplete(paymentID string, txData *bridgeapi.SwapTxData) {
	s := o.session
	var stale bool
	s.mutate(func() {
		if s.paymentID != paymentID || s.step != StepAwaitConfirm {
			stale = true
			return
		}
		s.step = StepComplete
		s.swapState = txData
		s.statusMessage = "Swap complete."
		s.pollingError = ""
	})
	if stale {
		return
	}

	o.recordCompletion(paymentID, txData)
	o.notifier.Notify("Swap complete", fmt.Sprintf("Swapped %v (payment id %v)", txData.Swaped, paymentID))
	if o.swapCtx.Direction == DirectionCcxToEvm {
		o.suggestWatchAsset()
	}
}

func (o *Orchestrator) recordCompletion(paymentID string, txData *bridgeapi.SwapTxData) {
	o.mu.Lock()
	req := o.lastRequest
	swapID := o.lastSwapID
	o.mu.Unlock()

	record := &Record{
		SwapID:      swapID,
		PaymentID:   paymentID,
		Direction:   o.swapCtx.Direction,
		NetworkKey:  o.swapCtx.NetworkKey,
		EvmTxHash:   o.session.Snapshot().EvmTxHash,
		SwapHash:    txData.SwapHash,
		DepositHash: txData.DepositHash,
		Swaped:      txData.Swaped,
		CompletedAt: time.Now(),
	}
	if req != nil {
		record.Amount = req.Amount
		record.FromAddress = req.FromAddress
		record.ToAddress = req.ToAddress
	}
	if err := o.recorder.AddRecord(record); err != nil {
		log.Warn("record completed swap failed", "paymentID", paymentID, "err", err)
	}
}

// suggestWatchAsset ask the wallet to display the wccx token.
// Failure is non-fatal.
func (o *Orchestrator) suggestWatchAsset() {
	chainCfg := o.swapCtx.Config
	err := o.wallet.WatchAsset(context.Background(), &wallet.WatchAssetParams{
		Type: "ERC20",
		Options: wallet.WatchAssetOption{
			Address:  chainCfg.Wccx.ContractAddress,
			Symbol:   "wCCX",
			Decimals: uint(decimalsFromUnits(chainCfg.Wccx.Units)),
		},
	})
	if err != nil {
		log.Debug("watch asset suggestion failed", "err", err)
	}
}

func (o *Orchestrator) onPollTransient(paymentID string, delay time.Duration, attempt int) {
	s := o.session
	s.mutate(func() {
		if s.paymentID != paymentID {
			return
		}
		s.pollingError = fmt.Sprintf("Status check failed, retrying in %vs...", int(delay.Round(time.Second).Seconds()))
	})
}

func (o *Orchestrator) onPollExhausted(paymentID string, lastErr error) {
	s := o.session
	s.mutate(func() {
		if s.paymentID != paymentID {
			return
		}
		s.pollingError = fmt.Sprintf(
			"Unable to confirm your swap after repeated attempts. Keep your payment id %v and contact support.", paymentID)
	})
	log.Error("swap polling gave up", "paymentID", paymentID, "err", lastErr)
}

func (o *Orchestrator) beginBusy() error {
	s := o.session
	var already bool
	s.mutate(func() {
		if s.isBusy {
			already = true
			return
		}
		s.isBusy = true
		s.pageError = ""
	})
	if already {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) clearBusy() {
	s := o.session
	s.mutate(func() { s.isBusy = false })
}

func (o *Orchestrator) setStatus(message string) {
	s := o.session
	s.mutate(func() { s.statusMessage = message })
}

func (o *Orchestrator) setPageError(err error) {
	s := o.session
	s.mutate(func() { s.pageError = UserMessage(err) })
}

func (o *Orchestrator) setEvmTxHash(txHash string) {
	s := o.session
	s.mutate(func() { s.evmTxHash = txHash })
}

func (o *Orchestrator) setPaymentID(paymentID string) {
	s := o.session
	s.mutate(func() { s.paymentID = paymentID })
}

func backendError(message string) error {
	if message == "" {
		return fmt.Errorf("%w: no reason given", bridgeapi.ErrBackendRejected)
	}
	return fmt.Errorf("%w: %v", bridgeapi.ErrBackendRejected, message)
}

// decimalsFromUnits log10 of the unit scale, e.g. 1000000 -> 6
func decimalsFromUnits(units uint64) int {
	decimals := 0
	for units >= 10 {
		units /= 10
		decimals++
	}
	return decimals
}
