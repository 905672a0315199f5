package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

// State read-only snapshot of the adapter state
type State struct {
	Address     string
	ChainID     *big.Int
	ConnectorID string
}

// IsConnected reports whether an account is active
func (s State) IsConnected() bool {
	return s.Address != ""
}

// Adapter normalizes zero or more wallet providers behind one stable
// interface. One instance per process; consumers read state through
// snapshots or subscriptions and never mutate it directly.
type Adapter struct {
	mu       sync.RWMutex
	registry *Registry
	flags    DisconnectStore

	provider    Provider
	connectorID string
	address     string
	chainID     *big.Int

	events      chan Event
	unsubscribe func()
	stopWatch   chan struct{}

	listenerSeq int
	listeners   map[int]func(State)
}

// NewAdapter new wallet adapter
func NewAdapter(registry *Registry, flags DisconnectStore) *Adapter {
	return &Adapter{
		registry:  registry,
		flags:     flags,
		listeners: make(map[int]func(State)),
	}
}

// State get a read-only state snapshot
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stateLocked()
}

func (a *Adapter) stateLocked() State {
	var chainID *big.Int
	if a.chainID != nil {
		chainID = new(big.Int).Set(a.chainID)
	}
	return State{
		Address:     a.address,
		ChainID:     chainID,
		ConnectorID: a.connectorID,
	}
}

// HasProvider reports whether a provider transport is active
func (a *Adapter) HasProvider() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.provider != nil
}

// IsConnected reports whether an account is active
func (a *Adapter) IsConnected() bool {
	return a.State().IsConnected()
}

// IsConnectorAvailable capability probe of one connector kind
func (a *Adapter) IsConnectorAvailable(id string) bool {
	return a.registry.IsAvailable(id)
}

// SubscribeState register a state change listener; returned func detaches it.
// Listeners run synchronously on the mutating goroutine, keep them cheap.
func (a *Adapter) SubscribeState(listener func(State)) (unsubscribe func()) {
	a.mu.Lock()
	a.listenerSeq++
	id := a.listenerSeq
	a.listeners[id] = listener
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Adapter) notifyLocked() {
	state := a.stateLocked()
	for _, listener := range a.listeners {
		listener(state)
	}
}

// Hydrate best-effort, non-prompting restore of an existing
// authorization. Never returns an error and leaves state unchanged on
// any failure. Respects the durable disconnect flag.
func (a *Adapter) Hydrate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("wallet hydrate panic recovered", "panic", r)
		}
	}()

	for _, conn := range a.registry.List() {
		if a.tryHydrateWith(ctx, conn) {
			return
		}
	}
}

func (a *Adapter) tryHydrateWith(ctx context.Context, conn *Connector) bool {
	provider, err := conn.Open()
	if err != nil {
		log.Trace("wallet hydrate: connector not reachable", "connector", conn.ID, "err", err)
		return false
	}

	var chainID *big.Int
	rawChain, err := provider.Request(ctx, MethodChainID)
	if err == nil {
		chainID, _ = parseQuantity(rawChain)
	}

	address := ""
	if !a.flags.IsSet() {
		rawAccounts, errr := provider.Request(ctx, MethodAccounts)
		if errr == nil {
			accounts, errp := parseAccounts(rawAccounts)
			if errp == nil && len(accounts) > 0 {
				address = accounts[0]
			}
		}
	}

	if chainID == nil && address == "" {
		_ = provider.Close()
		return false
	}

	a.mu.Lock()
	a.detachLocked()
	a.provider = provider
	a.connectorID = conn.ID
	a.chainID = chainID
	a.address = address
	if address != "" {
		a.attachLocked()
	}
	a.notifyLocked()
	a.mu.Unlock()

	log.Info("wallet hydrate success", "connector", conn.ID, "hasAddress", address != "", "chainID", chainID)
	return true
}

// Connect prompt the first registered connector for account access
func (a *Adapter) Connect(ctx context.Context) (string, error) {
	first := a.registry.First()
	if first == nil {
		return "", ErrNoProvider
	}
	return a.ConnectWith(ctx, first.ID)
}

// ConnectWith prompt a specific connector for account access.
// Resolves with the first returned account. Clears the durable
// disconnect flag on success.
func (a *Adapter) ConnectWith(ctx context.Context, connectorID string) (string, error) {
	conn := a.registry.Get(connectorID)
	if conn == nil {
		return "", fmt.Errorf("%w: '%v'", ErrNoSuchConnector, connectorID)
	}

	a.mu.Lock()
	provider := a.provider
	sameConnector := a.connectorID == conn.ID
	a.mu.Unlock()

	if provider == nil || !sameConnector {
		opened, err := conn.Open()
		if err != nil {
			return "", fmt.Errorf("%w: connector '%v': %v", ErrNoProvider, connectorID, err)
		}
		provider = opened
	}

	rawAccounts, err := provider.Request(ctx, MethodRequestAccounts)
	if err != nil {
		if !sameConnector {
			_ = provider.Close()
		}
		return "", err
	}
	accounts, err := parseAccounts(rawAccounts)
	if err != nil {
		if !sameConnector {
			_ = provider.Close()
		}
		return "", err
	}
	if len(accounts) == 0 {
		if !sameConnector {
			_ = provider.Close()
		}
		return "", ErrNoAccount
	}

	var chainID *big.Int
	rawChain, err := provider.Request(ctx, MethodChainID)
	if err == nil {
		chainID, _ = parseQuantity(rawChain)
	}

	a.mu.Lock()
	a.detachLocked()
	if a.provider != nil && a.provider != provider {
		_ = a.provider.Close()
	}
	a.provider = provider
	a.connectorID = conn.ID
	a.address = accounts[0]
	if chainID != nil {
		a.chainID = chainID
	}
	a.attachLocked()
	a.notifyLocked()
	a.mu.Unlock()

	if err := a.flags.Clear(); err != nil {
		log.Warn("clear disconnect flag failed", "err", err)
	}
	log.Info("wallet connect success", "connector", conn.ID, "address", accounts[0], "chainID", chainID)
	return accounts[0], nil
}

// Disconnect best-effort provider revoke, then always clear local
// state and set the durable disconnect flag.
func (a *Adapter) Disconnect(ctx context.Context) {
	a.mu.Lock()
	provider := a.provider
	a.mu.Unlock()

	if provider != nil {
		_, err := provider.Request(ctx, MethodRevokePerms, map[string]interface{}{MethodAccounts: map[string]interface{}{}})
		if err != nil {
			log.Debug("provider revoke not supported or failed", "err", err)
		}
	}

	a.mu.Lock()
	a.detachLocked()
	if a.provider != nil {
		_ = a.provider.Close()
	}
	a.provider = nil
	a.connectorID = ""
	a.address = ""
	a.chainID = nil
	a.notifyLocked()
	a.mu.Unlock()

	if err := a.flags.Set(); err != nil {
		log.Warn("set disconnect flag failed", "err", err)
	}
	log.Info("wallet disconnect success")
}

// EnsureChain request a switch to the target chain, adding the chain
// definition first when the wallet reports it unknown (code 4902).
// The cached chain id is refreshed afterward even on the failure path.
func (a *Adapter) EnsureChain(ctx context.Context, chain *params.Network) (err error) {
	a.mu.RLock()
	provider := a.provider
	a.mu.RUnlock()
	if provider == nil {
		return ErrNotConnected
	}

	defer a.refreshChainID(ctx, provider)

	chainIDHex := common.ToHexBig(chain.ChainID)
	_, err = provider.Request(ctx, MethodSwitchChain, &SwitchChainParams{ChainID: chainIDHex})
	if err == nil {
		return nil
	}
	if !IsUnknownChain(err) {
		return err
	}

	log.Info("chain unknown to wallet, adding definition", "network", chain.Key, "chainID", chain.ChainID)
	_, err = provider.Request(ctx, MethodAddChain, &AddChainParams{
		ChainID:   chainIDHex,
		ChainName: chain.Label,
		NativeCurrency: NativeCurrency{
			Name:     chain.Symbol,
			Symbol:   chain.Symbol,
			Decimals: 18,
		},
		RPCURLs:           params.GetGatewayURLs(chain.Key),
		BlockExplorerURLs: []string{chain.ExplorerURL},
	})
	if err != nil {
		return err
	}
	_, err = provider.Request(ctx, MethodSwitchChain, &SwitchChainParams{ChainID: chainIDHex})
	return err
}

func (a *Adapter) refreshChainID(ctx context.Context, provider Provider) {
	rawChain, err := provider.Request(ctx, MethodChainID)
	if err != nil {
		log.Debug("refresh chain id failed", "err", err)
		return
	}
	chainID, err := parseQuantity(rawChain)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.chainID = chainID
	a.notifyLocked()
	a.mu.Unlock()
}

// NativeTransferArgs args of SendNativeTransaction
type NativeTransferArgs struct {
	Chain *params.Network
	To    string
	Value *big.Int
	Data  []byte
	Gas   uint64 // optional, wallet estimates when zero
}

// SendNativeTransaction send a native currency payment through the
// wallet, auto-connecting first when needed. Returns the transaction
// hash; waiting for confirmations is the caller's concern.
func (a *Adapter) SendNativeTransaction(ctx context.Context, args *NativeTransferArgs) (string, error) {
	if !a.IsConnected() {
		if _, err := a.Connect(ctx); err != nil {
			return "", err
		}
	}

	a.mu.RLock()
	provider := a.provider
	from := a.address
	a.mu.RUnlock()

	txParams := &SendTransactionParams{
		From:  from,
		To:    args.To,
		Value: common.ToHexBig(args.Value),
	}
	if len(args.Data) > 0 {
		txParams.Data = "0x" + fmt.Sprintf("%x", args.Data)
	}
	if args.Gas > 0 {
		txParams.Gas = common.ToHexUint64(args.Gas)
	}

	raw, err := provider.Request(ctx, MethodSendTransaction, txParams)
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return "", fmt.Errorf("wrong send transaction result: %w", err)
	}
	log.Info("sent native transaction", "network", args.Chain.Key, "to", args.To, "value", args.Value, "txHash", txHash)
	return txHash, nil
}

// WatchAsset ask the wallet to display an erc20 token.
// Failures are expected to be treated as non-fatal by callers.
func (a *Adapter) WatchAsset(ctx context.Context, watchParams *WatchAssetParams) error {
	a.mu.RLock()
	provider := a.provider
	a.mu.RUnlock()
	if provider == nil {
		return ErrNotConnected
	}
	_, err := provider.Request(ctx, MethodWatchAsset, watchParams)
	if err != nil {
		log.Warn("watch asset failed", "token", watchParams.Options.Address, "err", err)
	}
	return err
}

// Clients chain-scoped read/write handles for contract calls.
// A factory rather than cached state since the target chain varies
// per call. Pass a nil provider to use the adapter's active one.
func (a *Adapter) Clients(chain *params.Network, provider Provider) (*Clients, error) {
	if provider == nil {
		a.mu.RLock()
		provider = a.provider
		a.mu.RUnlock()
	}
	if provider == nil {
		return nil, ErrNotConnected
	}
	a.mu.RLock()
	from := a.address
	a.mu.RUnlock()
	return &Clients{chain: chain, provider: provider, from: from}, nil
}

// Close tears down the adapter, detaching subscriptions and closing
// the active provider. The durable disconnect flag is not touched.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detachLocked()
	if a.provider != nil {
		_ = a.provider.Close()
		a.provider = nil
	}
}

// attachLocked subscribe change events of the active provider.
// Previous subscriptions must already be detached.
func (a *Adapter) attachLocked() {
	if a.provider == nil {
		return
	}
	events := make(chan Event, 16)
	a.events = events
	a.unsubscribe = a.provider.Subscribe(events)
	stop := make(chan struct{})
	a.stopWatch = stop
	go a.watchEvents(events, stop)
}

// detachLocked drop event subscriptions of the previous provider
func (a *Adapter) detachLocked() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.stopWatch != nil {
		close(a.stopWatch)
		a.stopWatch = nil
	}
	a.events = nil
}

func (a *Adapter) watchEvents(events <-chan Event, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(ev)
		}
	}
}

func (a *Adapter) handleEvent(ev Event) {
	switch ev.Type {
	case EventAccountsChanged:
		a.mu.Lock()
		if len(ev.Accounts) == 0 {
			a.address = ""
		} else {
			a.address = ev.Accounts[0]
		}
		a.notifyLocked()
		a.mu.Unlock()
		log.Info("wallet accounts changed", "count", len(ev.Accounts))
	case EventChainChanged:
		chainID, err := common.GetBigIntFromStr(ev.ChainID)
		if err != nil {
			log.Warn("wrong chain id in chainChanged event", "chainID", ev.ChainID, "err", err)
			return
		}
		a.mu.Lock()
		a.chainID = chainID
		a.notifyLocked()
		a.mu.Unlock()
		log.Info("wallet chain changed", "chainID", chainID)
	case EventDisconnected:
		a.mu.Lock()
		a.address = ""
		a.chainID = nil
		a.notifyLocked()
		a.mu.Unlock()
		log.Info("wallet provider disconnected")
	}
}

func parseAccounts(raw json.RawMessage) ([]string, error) {
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("wrong accounts result: %w", err)
	}
	return accounts, nil
}

func parseQuantity(raw json.RawMessage) (*big.Int, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, fmt.Errorf("wrong quantity result: %w", err)
	}
	if str == "" || strings.EqualFold(str, "0x") {
		return nil, fmt.Errorf("empty quantity result")
	}
	return common.GetBigIntFromStr(str)
}
