package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

type fakeProvider struct {
	mu      sync.Mutex
	handler func(method string, params []interface{}) (interface{}, error)
	calls   []string
	closed  bool

	subMu       sync.Mutex
	subscribers []chan<- Event
}

func (f *fakeProvider) Request(_ context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
	result, err := f.handler(method, params)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *fakeProvider) Subscribe(events chan<- Event) (unsubscribe func()) {
	f.subMu.Lock()
	f.subscribers = append(f.subscribers, events)
	f.subMu.Unlock()
	return func() {}
}

func (f *fakeProvider) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeProvider) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeProvider) emit(ev Event) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	for _, sub := range f.subscribers {
		sub <- ev
	}
}

func (f *fakeProvider) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == method {
			count++
		}
	}
	return count
}

func defaultHandler(method string, _ []interface{}) (interface{}, error) {
	switch method {
	case MethodChainID:
		return "0x1", nil
	case MethodAccounts, MethodRequestAccounts:
		return []string{"0x1111111111111111111111111111111111111111"}, nil
	default:
		return nil, fmt.Errorf("unexpected method '%v'", method)
	}
}

func newTestAdapter(t *testing.T, provider Provider) (*Adapter, DisconnectStore) {
	t.Helper()
	registry := NewRegistry()
	registry.Register(&Connector{
		ID:      ConnectorMetaMask,
		Name:    "MetaMask",
		Matches: MatchesMetaMask,
		Open: func() (Provider, error) {
			if provider == nil {
				return nil, errors.New("not installed")
			}
			return provider, nil
		},
	})
	flags := &MemoryDisconnectStore{}
	return NewAdapter(registry, flags), flags
}

func mustNetwork(t *testing.T, key string) *params.Network {
	t.Helper()
	network, err := params.GetNetwork(key)
	require.NoError(t, err)
	return network
}

func TestHydrateRestoresSession(t *testing.T) {
	provider := &fakeProvider{handler: defaultHandler}
	adapter, _ := newTestAdapter(t, provider)

	adapter.Hydrate(context.Background())

	state := adapter.State()
	assert.Equal(t, "0x1111111111111111111111111111111111111111", state.Address)
	require.NotNil(t, state.ChainID)
	assert.Equal(t, int64(1), state.ChainID.Int64())
	assert.Equal(t, ConnectorMetaMask, state.ConnectorID)
	assert.True(t, adapter.IsConnected())
}

func TestHydrateRespectsDisconnectFlag(t *testing.T) {
	provider := &fakeProvider{handler: defaultHandler}
	adapter, flags := newTestAdapter(t, provider)
	require.NoError(t, flags.Set())

	adapter.Hydrate(context.Background())

	state := adapter.State()
	assert.Empty(t, state.Address)
	require.NotNil(t, state.ChainID)
	assert.Equal(t, int64(1), state.ChainID.Int64())
	assert.Zero(t, provider.callCount(MethodAccounts))
	assert.Zero(t, provider.callCount(MethodRequestAccounts))
}

func TestHydrateSurvivesBrokenProvider(t *testing.T) {
	provider := &fakeProvider{handler: func(string, []interface{}) (interface{}, error) {
		panic("provider exploded")
	}}
	adapter, _ := newTestAdapter(t, provider)

	assert.NotPanics(t, func() {
		adapter.Hydrate(context.Background())
	})
	assert.False(t, adapter.IsConnected())
}

func TestHydrateWithoutProvider(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)
	adapter.Hydrate(context.Background())
	assert.False(t, adapter.IsConnected())
	assert.False(t, adapter.HasProvider())
}

func TestConnectClearsDisconnectFlag(t *testing.T) {
	provider := &fakeProvider{handler: defaultHandler}
	adapter, flags := newTestAdapter(t, provider)
	require.NoError(t, flags.Set())

	address, err := adapter.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", address)
	assert.False(t, flags.IsSet())
}

func TestConnectNoAccounts(t *testing.T) {
	provider := &fakeProvider{handler: func(method string, _ []interface{}) (interface{}, error) {
		if method == MethodRequestAccounts {
			return []string{}, nil
		}
		return "0x1", nil
	}}
	adapter, _ := newTestAdapter(t, provider)

	_, err := adapter.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoAccount)
	assert.True(t, provider.isClosed(), "unusable provider must be released")
}

func TestConnectMalformedAccountsClosesProvider(t *testing.T) {
	provider := &fakeProvider{handler: func(method string, _ []interface{}) (interface{}, error) {
		if method == MethodRequestAccounts {
			return map[string]string{"not": "a list"}, nil
		}
		return "0x1", nil
	}}
	adapter, _ := newTestAdapter(t, provider)

	_, err := adapter.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, provider.isClosed(), "unusable provider must be released")
	assert.Empty(t, adapter.State().Address)
}

func TestConnectUserRejected(t *testing.T) {
	provider := &fakeProvider{handler: func(method string, _ []interface{}) (interface{}, error) {
		if method == MethodRequestAccounts {
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		return "0x1", nil
	}}
	adapter, _ := newTestAdapter(t, provider)

	_, err := adapter.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
	assert.False(t, adapter.IsConnected())
}

func TestConnectUnknownConnector(t *testing.T) {
	adapter, _ := newTestAdapter(t, &fakeProvider{handler: defaultHandler})
	_, err := adapter.ConnectWith(context.Background(), "nosuch")
	assert.ErrorIs(t, err, ErrNoSuchConnector)
}

func TestDisconnectSetsFlagAndClearsState(t *testing.T) {
	provider := &fakeProvider{handler: func(method string, params []interface{}) (interface{}, error) {
		if method == MethodRevokePerms {
			return nil, errors.New("revoke not supported")
		}
		return defaultHandler(method, params)
	}}
	adapter, flags := newTestAdapter(t, provider)

	_, err := adapter.Connect(context.Background())
	require.NoError(t, err)

	adapter.Disconnect(context.Background())

	assert.False(t, adapter.IsConnected())
	assert.False(t, adapter.HasProvider())
	assert.True(t, flags.IsSet())
}

func TestEnsureChainAddsUnknownChain(t *testing.T) {
	var switchCalls int
	provider := &fakeProvider{}
	provider.handler = func(method string, _ []interface{}) (interface{}, error) {
		switch method {
		case MethodSwitchChain:
			switchCalls++
			if switchCalls == 1 {
				return nil, &RPCError{Code: CodeUnknownChain, Message: "Unrecognized chain ID"}
			}
			return nil, nil
		case MethodAddChain:
			return nil, nil
		case MethodChainID:
			if switchCalls >= 2 {
				return "0x38", nil
			}
			return "0x1", nil
		default:
			return defaultHandler(method, nil)
		}
	}
	adapter, _ := newTestAdapter(t, provider)
	_, err := adapter.Connect(context.Background())
	require.NoError(t, err)

	chain := mustNetwork(t, "bsc")
	require.NoError(t, adapter.EnsureChain(context.Background(), chain))
	assert.Equal(t, 2, switchCalls)
	assert.Equal(t, 1, provider.callCount(MethodAddChain))
	require.NotNil(t, adapter.State().ChainID)
	assert.Equal(t, int64(56), adapter.State().ChainID.Int64())
}

func TestEnsureChainUserRejected(t *testing.T) {
	provider := &fakeProvider{}
	provider.handler = func(method string, _ []interface{}) (interface{}, error) {
		if method == MethodSwitchChain {
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		return defaultHandler(method, nil)
	}
	adapter, _ := newTestAdapter(t, provider)
	_, err := adapter.Connect(context.Background())
	require.NoError(t, err)

	err = adapter.EnsureChain(context.Background(), mustNetwork(t, "eth"))
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
	assert.Zero(t, provider.callCount(MethodAddChain))
}

func TestEnsureChainNotConnected(t *testing.T) {
	adapter, _ := newTestAdapter(t, &fakeProvider{handler: defaultHandler})
	err := adapter.EnsureChain(context.Background(), mustNetwork(t, "eth"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendNativeTransactionAutoConnects(t *testing.T) {
	provider := &fakeProvider{}
	provider.handler = func(method string, _ []interface{}) (interface{}, error) {
		if method == MethodSendTransaction {
			return "0xabc", nil
		}
		return defaultHandler(method, nil)
	}
	adapter, _ := newTestAdapter(t, provider)

	txHash, err := adapter.SendNativeTransaction(context.Background(), &NativeTransferArgs{
		Chain: mustNetwork(t, "eth"),
		To:    "0x2222222222222222222222222222222222222222",
		Value: big.NewInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", txHash)
	assert.Equal(t, 1, provider.callCount(MethodRequestAccounts))
}

func TestAccountsChangedEvent(t *testing.T) {
	provider := &fakeProvider{handler: defaultHandler}
	adapter, _ := newTestAdapter(t, provider)

	var mu sync.Mutex
	var lastState State
	unsubscribe := adapter.SubscribeState(func(s State) {
		mu.Lock()
		lastState = s
		mu.Unlock()
	})
	defer unsubscribe()

	_, err := adapter.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(Event{Type: EventAccountsChanged, Accounts: []string{"0x3333333333333333333333333333333333333333"}})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lastState.Address == "0x3333333333333333333333333333333333333333"
	}, time.Second, 10*time.Millisecond)

	provider.emit(Event{Type: EventAccountsChanged, Accounts: nil})
	require.Eventually(t, func() bool {
		return !adapter.IsConnected()
	}, time.Second, 10*time.Millisecond)
}

func TestChainChangedEvent(t *testing.T) {
	provider := &fakeProvider{handler: defaultHandler}
	adapter, _ := newTestAdapter(t, provider)
	_, err := adapter.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(Event{Type: EventChainChanged, ChainID: "0x89"})
	require.Eventually(t, func() bool {
		chainID := adapter.State().ChainID
		return chainID != nil && chainID.Int64() == 137
	}, time.Second, 10*time.Millisecond)
}
