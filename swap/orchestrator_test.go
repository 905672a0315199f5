package swap

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

const (
	testCcxAddress = "ccx7V4LeUXy2eZ9waDXgsLS7Uc11e2CpNSCWXdUrHTdeR5sZ6KUNGeWEVLLGq7LBWS53rexyvkT7UnPBHPor4ZfV3Pe7J9HNa5"
	testEvmAddress = "0x1111111111111111111111111111111111111111"
)

type stubWallet struct {
	mu            sync.Mutex
	calls         []string
	connected     bool
	address       string
	tokenBalance  *big.Int
	nativeTxHash  string
	tokenTxHash   string
	connectErr    error
	transferErr   error
	sendNativeErr error
}

func (w *stubWallet) record(call string) {
	w.mu.Lock()
	w.calls = append(w.calls, call)
	w.mu.Unlock()
}

func (w *stubWallet) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func (w *stubWallet) Address() string { return w.address }

func (w *stubWallet) IsConnected() bool { return w.connected }

func (w *stubWallet) Connect(context.Context) (string, error) {
	w.record("connect")
	if w.connectErr != nil {
		return "", w.connectErr
	}
	w.connected = true
	return w.address, nil
}

func (w *stubWallet) EnsureChain(context.Context, *params.Network) error {
	w.record("ensureChain")
	return nil
}

func (w *stubWallet) SendNativeTransaction(context.Context, *wallet.NativeTransferArgs) (string, error) {
	w.record("sendNative")
	if w.sendNativeErr != nil {
		return "", w.sendNativeErr
	}
	return w.nativeTxHash, nil
}

func (w *stubWallet) Erc20Balance(context.Context, *params.Network, string, string) (*big.Int, error) {
	w.record("erc20Balance")
	return w.tokenBalance, nil
}

func (w *stubWallet) Erc20Transfer(context.Context, *params.Network, string, string, *big.Int) (string, error) {
	w.record("erc20Transfer")
	if w.transferErr != nil {
		return "", w.transferErr
	}
	return w.tokenTxHash, nil
}

func (w *stubWallet) WaitForReceipt(context.Context, *params.Network, string, uint64) error {
	w.record("waitReceipt")
	return nil
}

func (w *stubWallet) WatchAsset(context.Context, *wallet.WatchAssetParams) error {
	w.record("watchAsset")
	return nil
}

type stubBackend struct {
	mu           sync.Mutex
	initResult   *bridgeapi.SwapInitResult
	execResult   *bridgeapi.SwapExecResult
	statusSeq    []*bridgeapi.SwapStatusResult
	statusErrSeq []error
	statusCalls  int
	initErr      error
	execErr      error
	liquidity    float64 // 0 means plenty
	liquidityErr error
}

func (b *stubBackend) balance() (float64, error) {
	if b.liquidityErr != nil {
		return 0, b.liquidityErr
	}
	if b.liquidity > 0 {
		return b.liquidity, nil
	}
	return 1e6, nil
}

func (b *stubBackend) EstimateGas(string, float64) (float64, error) { return 21000, nil }
func (b *stubBackend) GetGasPrice(string) (float64, error)          { return 1e9, nil }
func (b *stubBackend) GetCcxBalance(string) (float64, error)        { return b.balance() }
func (b *stubBackend) GetWccxBalance(string) (float64, error)       { return b.balance() }

func (b *stubBackend) InitCcxToWccxSwap(string, *bridgeapi.CcxToWccxInitRequest) (*bridgeapi.SwapInitResult, error) {
	return b.initResult, b.initErr
}

func (b *stubBackend) InitWccxToCcxSwap(string, *bridgeapi.WccxToCcxInitRequest) (*bridgeapi.SwapInitResult, error) {
	return b.initResult, b.initErr
}

func (b *stubBackend) ExecWccxToCcxSwap(string, *bridgeapi.SwapExecRequest) (*bridgeapi.SwapExecResult, error) {
	return b.execResult, b.execErr
}

func (b *stubBackend) nextStatus() (*bridgeapi.SwapStatusResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.statusCalls
	b.statusCalls++
	if i < len(b.statusErrSeq) && b.statusErrSeq[i] != nil {
		return nil, b.statusErrSeq[i]
	}
	if i < len(b.statusSeq) {
		return b.statusSeq[i], nil
	}
	return &bridgeapi.SwapStatusResult{Result: false}, nil
}

func (b *stubBackend) statusCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

func (b *stubBackend) GetCcxToWccxStatus(string, string) (*bridgeapi.SwapStatusResult, error) {
	return b.nextStatus()
}

func (b *stubBackend) GetWccxToCcxStatus(string, string) (*bridgeapi.SwapStatusResult, error) {
	return b.nextStatus()
}

type memRecorder struct {
	mu      sync.Mutex
	records []*Record
}

func (r *memRecorder) AddRecord(record *Record) error {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
	return nil
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *memRecorder) first() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[0]
}

func testChainConfig() *bridgeapi.ChainConfig {
	return &bridgeapi.ChainConfig{
		Common: bridgeapi.ChainCommonConfig{MinSwapAmount: 10, MaxSwapAmount: 1000},
		Wccx: bridgeapi.ChainWccxConfig{
			AccountAddress:  "0x2222222222222222222222222222222222222222",
			ChainID:         1,
			Confirmations:   3,
			ContractAddress: "0x3333333333333333333333333333333333333333",
			Units:           1000000,
		},
		Ccx: bridgeapi.ChainCcxConfig{
			AccountAddress: testCcxAddress,
			Units:          1000000,
		},
		Tx: bridgeapi.ChainTxConfig{GasMultiplier: 1.2},
	}
}

func testSwapContext(t *testing.T, direction Direction) *Context {
	t.Helper()
	chain, err := params.GetNetwork("eth")
	require.NoError(t, err)
	return &Context{
		Direction:  direction,
		NetworkKey: "eth",
		Chain:      chain,
		Config:     testChainConfig(),
	}
}

func fastOrchestrator(t *testing.T, direction Direction, walletSvc Wallet, backend Backend, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append(opts, WithPoller(NewPoller(time.Millisecond, fastPollerConfig(3))))
	o := NewOrchestrator(testSwapContext(t, direction), walletSvc, backend, opts...)
	t.Cleanup(o.Close)
	return o
}

func TestCcxToEvmHappyPath(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{
		initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-1"},
		statusSeq: []*bridgeapi.SwapStatusResult{
			{Result: false},
			{Result: false},
			{Result: true, TxData: &bridgeapi.SwapTxData{Swaped: 100, Address: testEvmAddress, SwapHash: "0xs", DepositHash: "0xd"}},
		},
	}
	recorder := &memRecorder{}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend, WithRecorder(recorder))

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.NoError(t, err)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepAwaitConfirm, snapshot.Step)
	assert.Equal(t, "pay-1", snapshot.PaymentID)
	assert.Equal(t, "0xabc", snapshot.EvmTxHash)
	assert.False(t, snapshot.IsBusy)

	require.Eventually(t, func() bool {
		return recorder.count() == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, StepComplete, o.Session().Step())

	record := recorder.first()
	assert.Equal(t, DirectionCcxToEvm, record.Direction)
	assert.Equal(t, "pay-1", record.PaymentID)
	assert.Equal(t, float64(100), record.Amount)
	assert.Equal(t, "0xs", record.SwapHash)
	assert.Equal(t, "0xabc", record.EvmTxHash)
	assert.NotEmpty(t, record.SwapID)
	assert.Equal(t, 3, backend.statusCallCount())
}

func TestCcxToEvmAmountOutOfBounds(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress}
	backend := &stubBackend{}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      5,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.ErrorIs(t, err, ErrAmountOutOfBounds)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step)
	assert.False(t, snapshot.IsBusy)
	assert.Contains(t, snapshot.PageError, "10")
	assert.Contains(t, snapshot.PageError, "1000")
	assert.Zero(t, walletSvc.callCount(), "no wallet calls on validation failure")
	assert.Zero(t, backend.statusCallCount())
}

func TestCcxToEvmInsufficientLiquidity(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress}
	backend := &stubBackend{liquidity: 1}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step)
	assert.False(t, snapshot.IsBusy)
	assert.Zero(t, walletSvc.callCount(), "no wallet calls when the bridge cannot settle")
	assert.Zero(t, backend.statusCallCount())
}

func TestEvmToCcxInsufficientLiquidity(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, tokenBalance: big.NewInt(1e9)}
	backend := &stubBackend{liquidity: 1}
	o := fastOrchestrator(t, DirectionEvmToCcx, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:    100,
		ToAddress: testCcxAddress,
	})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	assert.Zero(t, walletSvc.callCount())
	assert.Equal(t, StepCollectInput, o.Session().Step())
}

func TestLiquidityFetchFailureDoesNotBlock(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{
		liquidityErr: errors.New("balance endpoint down"),
		initResult:   &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-5"},
		statusSeq: []*bridgeapi.SwapStatusResult{
			{Result: true, TxData: &bridgeapi.SwapTxData{Swaped: 100, SwapHash: "0xs"}},
		},
	}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-5", o.Session().PaymentID())
}

func TestCcxToEvmInvalidAddresses(t *testing.T) {
	walletSvc := &stubWallet{}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, &stubBackend{})

	err := o.Submit(context.Background(), &Request{Amount: 100, FromAddress: "bogus", ToAddress: testEvmAddress})
	assert.ErrorIs(t, err, ErrInvalidCcxAddress)

	err = o.Submit(context.Background(), &Request{Amount: 100, FromAddress: testCcxAddress, ToAddress: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidEvmAddress)

	assert.Zero(t, walletSvc.callCount())
}

func TestCcxToEvmUserRejection(t *testing.T) {
	walletSvc := &stubWallet{
		address:       testEvmAddress,
		sendNativeErr: &wallet.RPCError{Code: wallet.CodeUserRejected, Message: "User rejected the request."},
	}
	backend := &stubBackend{initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-x"}}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.Error(t, err)
	assert.True(t, wallet.IsUserRejected(err))

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step)
	assert.Empty(t, snapshot.PaymentID)
	assert.False(t, snapshot.IsBusy)
	assert.Equal(t, "Transaction cancelled in your wallet.", snapshot.PageError)
}

func TestCcxToEvmBackendRejection(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{initResult: &bridgeapi.SwapInitResult{Success: false, Error: "deposit window closed"}}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.ErrorIs(t, err, bridgeapi.ErrBackendRejected)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step)
	assert.Empty(t, snapshot.PaymentID)
	assert.Contains(t, snapshot.PageError, "deposit window closed")
}

func TestEvmToCcxHappyPath(t *testing.T) {
	walletSvc := &stubWallet{
		address:      testEvmAddress,
		tokenBalance: big.NewInt(200000000), // 200 wccx at 1e6 units
		tokenTxHash:  "0xdef",
	}
	backend := &stubBackend{
		initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-2"},
		execResult: &bridgeapi.SwapExecResult{Success: true},
		statusSeq: []*bridgeapi.SwapStatusResult{
			{Result: true, TxData: &bridgeapi.SwapTxData{Swaped: 50, SwapHash: "0xs2", DepositHash: "0xd2"}},
		},
	}
	recorder := &memRecorder{}
	o := fastOrchestrator(t, DirectionEvmToCcx, walletSvc, backend, WithRecorder(recorder))

	err := o.Submit(context.Background(), &Request{Amount: 50, ToAddress: testCcxAddress})
	require.NoError(t, err)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepAwaitConfirm, snapshot.Step)
	assert.Equal(t, "pay-2", snapshot.PaymentID)
	assert.Equal(t, "0xdef", snapshot.EvmTxHash)

	require.Eventually(t, func() bool {
		return recorder.count() == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, StepComplete, o.Session().Step())
	assert.Equal(t, DirectionEvmToCcx, recorder.first().Direction)
}

func TestEvmToCcxInsufficientTokenBalance(t *testing.T) {
	walletSvc := &stubWallet{
		address:      testEvmAddress,
		tokenBalance: big.NewInt(10000000), // 10 wccx
	}
	o := fastOrchestrator(t, DirectionEvmToCcx, walletSvc, &stubBackend{})

	err := o.Submit(context.Background(), &Request{Amount: 50, ToAddress: testCcxAddress})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, StepCollectInput, o.Session().Step())
}

func TestEvmToCcxExecFailureKeepsPaymentID(t *testing.T) {
	walletSvc := &stubWallet{
		address:      testEvmAddress,
		tokenBalance: big.NewInt(200000000),
		tokenTxHash:  "0xdef",
	}
	backend := &stubBackend{
		initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-3"},
		execResult: &bridgeapi.SwapExecResult{Success: false, Error: "execution refused"},
	}
	o := fastOrchestrator(t, DirectionEvmToCcx, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{Amount: 50, ToAddress: testCcxAddress})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pay-3")

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step, "no progress without successful exec")
	assert.Equal(t, "pay-3", snapshot.PaymentID, "payment id kept for manual follow-up")
	assert.Contains(t, snapshot.PageError, "pay-3")
}

func TestPollingExhaustionSurfacesPaymentID(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{
		initResult:   &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-4"},
		statusErrSeq: []error{assert.AnError, assert.AnError, assert.AnError, assert.AnError, assert.AnError},
	}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(o.Session().Snapshot().PollingError, "support")
	}, 2*time.Second, time.Millisecond)

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepAwaitConfirm, snapshot.Step)
	assert.Contains(t, snapshot.PollingError, "pay-4")
	assert.Contains(t, snapshot.PollingError, "support")
}

func TestResetCancelsPollingAndClearsSession(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-5"}}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.NoError(t, err)
	require.Equal(t, StepAwaitConfirm, o.Session().Step())

	o.Reset()

	snapshot := o.Session().Snapshot()
	assert.Equal(t, StepCollectInput, snapshot.Step)
	assert.Empty(t, snapshot.PaymentID)
	assert.Empty(t, snapshot.EvmTxHash)
	assert.Nil(t, snapshot.SwapState)

	settled := backend.statusCallCount()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, backend.statusCallCount()-settled, 1, "no further status checks after reset")
}

func TestSessionSubscription(t *testing.T) {
	walletSvc := &stubWallet{address: testEvmAddress, nativeTxHash: "0xabc"}
	backend := &stubBackend{initResult: &bridgeapi.SwapInitResult{Success: true, PaymentID: "pay-6"}}
	o := fastOrchestrator(t, DirectionCcxToEvm, walletSvc, backend)

	var mu sync.Mutex
	var steps []Step
	unsubscribe := o.Session().Subscribe(func(snapshot Snapshot) {
		mu.Lock()
		if len(steps) == 0 || steps[len(steps)-1] != snapshot.Step {
			steps = append(steps, snapshot.Step)
		}
		mu.Unlock()
	})
	defer unsubscribe()

	err := o.Submit(context.Background(), &Request{
		Amount:      100,
		FromAddress: testCcxAddress,
		ToAddress:   testEvmAddress,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, steps, StepAwaitConfirm)
}
