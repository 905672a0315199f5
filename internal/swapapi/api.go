// Package swapapi provides the service surface of the local status
// and control api.
package swapapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/backoff"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/history"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/swap"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

var (
	bridgeClient  *bridgeapi.Client
	walletAdapter *wallet.Adapter
	historyStore  *history.Store

	orchLock      sync.Mutex
	orchestrators = make(map[string]*swap.Orchestrator)

	inflightSwaps = mapset.NewSet()
)

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func newRPCInternalError(err error) error {
	return newRPCError(-32000, "rpcError: "+err.Error())
}

// Init initialize the service collaborators. historyStore may be nil
// when history persistence is disabled.
func Init(client *bridgeapi.Client, adapter *wallet.Adapter, store *history.Store) {
	bridgeClient = client
	walletAdapter = adapter
	historyStore = store
}

// GetServerInfo api
func GetServerInfo() *ServerInfo {
	return &ServerInfo{
		Identifier: params.GetIdentifier(),
		Version:    params.VersionWithMeta,
		Networks:   params.GetEnabledNetworks(),
	}
}

// GetVersionInfo api
func GetVersionInfo() string {
	return params.VersionWithMeta
}

// GetNetworks api
func GetNetworks() []*NetworkInfo {
	keys := []string{params.NetworkETH, params.NetworkBSC, params.NetworkPLG}
	infos := make([]*NetworkInfo, 0, len(keys))
	for _, key := range keys {
		network, err := params.GetNetwork(key)
		if err != nil {
			continue
		}
		infos = append(infos, convertNetwork(network))
	}
	return infos
}

// GetChainConfig api
func GetChainConfig(networkKey string) (*bridgeapi.ChainConfig, error) {
	if !params.IsKnownNetwork(networkKey) {
		return nil, newRPCError(-32098, fmt.Sprintf("unknown network '%v'", networkKey))
	}
	chainConfig, err := bridgeClient.GetChainConfig(networkKey)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return chainConfig, nil
}

// GetWalletState api
func GetWalletState() *WalletInfo {
	return convertWalletState(walletAdapter.State())
}

// ConnectWallet api. connectorID may be empty for the first
// registered connector.
func ConnectWallet(connectorID string) (*WalletInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	var err error
	if connectorID == "" {
		_, err = walletAdapter.Connect(ctx)
	} else {
		_, err = walletAdapter.ConnectWith(ctx, connectorID)
	}
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return GetWalletState(), nil
}

// DisconnectWallet api
func DisconnectWallet() *WalletInfo {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	walletAdapter.Disconnect(ctx)
	return GetWalletState()
}

func parseDirection(direction string) (swap.Direction, error) {
	d := swap.Direction(strings.ToLower(direction))
	if !d.IsValid() {
		return "", newRPCError(-32097, fmt.Sprintf("invalid swap direction '%v', want '%v' or '%v'",
			direction, swap.DirectionCcxToEvm, swap.DirectionEvmToCcx))
	}
	return d, nil
}

func getOrchestrator(direction swap.Direction, networkKey string) (*swap.Orchestrator, error) {
	networkKey = strings.ToLower(networkKey)
	if !params.IsNetworkEnabled(networkKey) {
		return nil, newRPCError(-32098, fmt.Sprintf("network '%v' is not enabled", networkKey))
	}

	orchLock.Lock()
	defer orchLock.Unlock()

	key := string(direction) + "/" + networkKey
	if o, exist := orchestrators[key]; exist {
		return o, nil
	}

	network, err := params.GetNetwork(networkKey)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	chainConfig, err := bridgeClient.GetChainConfig(networkKey)
	if err != nil {
		return nil, newRPCInternalError(err)
	}

	swapCtx := &swap.Context{
		Direction:  direction,
		NetworkKey: networkKey,
		Chain:      network,
		Config:     chainConfig,
	}
	opts := []swap.Option{
		swap.WithPoller(swap.NewPoller(pollSuccessInterval(), pollBackoffConfig())),
	}
	if historyStore != nil {
		opts = append(opts, swap.WithRecorder(historyStore))
	}
	o := swap.NewOrchestrator(swapCtx, &swap.AdapterWallet{Adapter: walletAdapter}, bridgeClient, opts...)
	orchestrators[key] = o
	return o, nil
}

func pollSuccessInterval() time.Duration {
	extra := params.GetExtraConfig()
	if extra != nil && extra.PollSuccessIntervalSeconds > 0 {
		return time.Duration(extra.PollSuccessIntervalSeconds) * time.Second
	}
	return swap.DefaultSuccessInterval
}

func pollBackoffConfig() backoff.Config {
	extra := params.GetExtraConfig()
	maxRetries := 0
	if extra != nil {
		maxRetries = extra.PollMaxRetries
	}
	return swap.PollingBackoffConfig(maxRetries)
}

// SubmitSwap api. The submission runs in the background, poll
// GetSwapStatus for progress.
func SubmitSwap(args *SubmitSwapArgs) (*SubmitSwapResult, error) {
	direction, err := parseDirection(args.Direction)
	if err != nil {
		return nil, err
	}
	o, err := getOrchestrator(direction, args.NetworkKey)
	if err != nil {
		return nil, err
	}
	if o.Session().IsBusy() {
		return nil, newRPCError(-32096, swap.UserMessage(swap.ErrBusy))
	}

	req := &swap.Request{
		Amount:      args.Amount,
		FromAddress: args.FromAddress,
		ToAddress:   args.ToAddress,
		Email:       args.Email,
	}
	if err := req.Validate(o.Context()); err != nil {
		return nil, newRPCError(-32095, swap.UserMessage(err))
	}

	sessionKey := string(direction) + "/" + strings.ToLower(args.NetworkKey)
	if !inflightSwaps.Add(sessionKey) {
		return nil, newRPCError(-32096, swap.UserMessage(swap.ErrBusy))
	}

	go func() {
		defer inflightSwaps.Remove(sessionKey)
		if err := o.Submit(context.Background(), req); err != nil {
			log.Warn("background swap submit failed", "direction", direction, "network", args.NetworkKey, "err", err)
		}
	}()

	return &SubmitSwapResult{
		Accepted: true,
		Status:   convertSession(o.Context(), o.Session().Snapshot()),
	}, nil
}

// GetSwapStatus api
func GetSwapStatus(direction, networkKey string) (*SessionStatus, error) {
	d, err := parseDirection(direction)
	if err != nil {
		return nil, err
	}
	o, err := getOrchestrator(d, networkKey)
	if err != nil {
		return nil, err
	}
	return convertSession(o.Context(), o.Session().Snapshot()), nil
}

// ResetSwap api
func ResetSwap(direction, networkKey string) (*SessionStatus, error) {
	d, err := parseDirection(direction)
	if err != nil {
		return nil, err
	}
	o, err := getOrchestrator(d, networkKey)
	if err != nil {
		return nil, err
	}
	o.Reset()
	return convertSession(o.Context(), o.Session().Snapshot()), nil
}

// GetSwapHistory api. limit 0 means all records.
func GetSwapHistory(networkKey string, limit int) ([]*swap.Record, error) {
	if historyStore == nil {
		return nil, newRPCError(-32094, "history persistence is disabled")
	}
	if networkKey == "" || networkKey == "all" {
		records, err := historyStore.ListRecords(limit)
		if err != nil {
			return nil, newRPCInternalError(err)
		}
		return records, nil
	}
	records, err := historyStore.ListRecordsByNetwork(strings.ToLower(networkKey), limit)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return records, nil
}

// GetSwapHistoryByAddress api. Matches records sent from or to the
// address. limit 0 means all records.
func GetSwapHistoryByAddress(address string, limit int) ([]*swap.Record, error) {
	if historyStore == nil {
		return nil, newRPCError(-32094, "history persistence is disabled")
	}
	records, err := historyStore.ListRecordsByAddress(address, limit)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return records, nil
}
