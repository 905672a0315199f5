package bridgeapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/rpc/client"
	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// common errors
var (
	ErrQueryError      = errors.New("bridge api query error")
	ErrBackendRejected = errors.New("bridge backend rejected request")
)

const defaultGetRetries = 3

// Client typed bridge backend api client.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	timeout    int // seconds
	getRetries uint64

	configGroup singleflight.Group
	configLock  sync.RWMutex
	configCache map[string]*ChainConfig // key is network key
}

// NewClient new bridge api client
func NewClient(baseURL string, timeoutSeconds int, maxRetries uint64) *Client {
	if maxRetries == 0 {
		maxRetries = defaultGetRetries
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		timeout:     timeoutSeconds,
		getRetries:  maxRetries,
		configCache: make(map[string]*ChainConfig),
	}
}

func (c *Client) networkURL(networkKey, path string) string {
	return fmt.Sprintf("%v/%v%v", c.baseURL, strings.ToLower(networkKey), path)
}

// wrapQueryError wrap transport or decode error of a bridge api call
func wrapQueryError(err error, path string) error {
	return fmt.Errorf("%w: call '%v' failed, err='%v'", ErrQueryError, path, err)
}

// retryGet retry an idempotent GET with exponential backoff.
// Only read-only calls go through here; calls with side effects
// are never retried automatically.
func (c *Client) retryGet(path string, call func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.getRetries)
	return backoff.RetryNotify(call, policy, func(err error, next time.Duration) {
		log.Debug("bridge api get failed, will retry", "path", path, "nextIn", next.String(), "err", err)
	})
}

// GetChainConfig fetch per network chain config with session caching.
// The first successful fetch wins; concurrent callers share one flight;
// a failed fetch leaves no cache entry so a later call can retry.
func (c *Client) GetChainConfig(networkKey string) (*ChainConfig, error) {
	key := strings.ToLower(networkKey)

	c.configLock.RLock()
	cached, exist := c.configCache[key]
	c.configLock.RUnlock()
	if exist {
		return cached, nil
	}

	result, err, _ := c.configGroup.Do(key, func() (interface{}, error) {
		path := "/config/chain"
		config := &ChainConfig{}
		errf := c.retryGet(path, func() error {
			return client.HTTPGet(config, c.networkURL(key, path), nil, nil, c.timeout)
		})
		if errf != nil {
			return nil, wrapQueryError(errf, path)
		}
		c.configLock.Lock()
		c.configCache[key] = config
		c.configLock.Unlock()
		log.Info("fetched bridge chain config", "network", key,
			"minSwapAmount", config.Common.MinSwapAmount,
			"maxSwapAmount", config.Common.MaxSwapAmount,
			"confirmations", config.Wccx.Confirmations)
		return config, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ChainConfig), nil
}

// EvictChainConfig drop the cached chain config of a network
func (c *Client) EvictChainConfig(networkKey string) {
	c.configLock.Lock()
	delete(c.configCache, strings.ToLower(networkKey))
	c.configLock.Unlock()
}

// EstimateGas estimate the gas amount of the wccx mint for a swap amount
func (c *Client) EstimateGas(networkKey string, amount float64) (float64, error) {
	path := "/api/ccx/wccx/estimateGas"
	result := &GasResult{}
	err := client.HTTPPost(result, c.networkURL(networkKey, path), &EstimateGasRequest{Amount: amount}, nil, nil, c.timeout)
	if err != nil {
		return 0, wrapQueryError(err, path)
	}
	if !result.Result {
		return 0, pkgerrors.Wrap(ErrBackendRejected, "estimateGas")
	}
	return result.Gas, nil
}

// GetGasPrice get the backend's gas price view of the network
func (c *Client) GetGasPrice(networkKey string) (float64, error) {
	path := "/api/ccx/wccx/getGasPrice"
	result := &GasResult{}
	err := c.retryGet(path, func() error {
		return client.HTTPGet(result, c.networkURL(networkKey, path), nil, nil, c.timeout)
	})
	if err != nil {
		return 0, wrapQueryError(err, path)
	}
	if !result.Result {
		return 0, pkgerrors.Wrap(ErrBackendRejected, "getGasPrice")
	}
	return result.Gas, nil
}

// GetCcxBalance get the bridge's ccx liquidity balance
func (c *Client) GetCcxBalance(networkKey string) (float64, error) {
	return c.getBalance(networkKey, "/api/balance/ccx")
}

// GetWccxBalance get the bridge's wccx liquidity balance
func (c *Client) GetWccxBalance(networkKey string) (float64, error) {
	return c.getBalance(networkKey, "/api/balance/wccx")
}

func (c *Client) getBalance(networkKey, path string) (float64, error) {
	result := &BalanceResult{}
	err := c.retryGet(path, func() error {
		return client.HTTPGet(result, c.networkURL(networkKey, path), nil, nil, c.timeout)
	})
	if err != nil {
		return 0, wrapQueryError(err, path)
	}
	if !result.Result {
		return 0, pkgerrors.Wrap(ErrBackendRejected, path)
	}
	return result.Balance, nil
}

// InitCcxToWccxSwap register a ccx->wccx swap, obtaining a payment id.
// Never retried automatically (has side effects).
func (c *Client) InitCcxToWccxSwap(networkKey string, req *CcxToWccxInitRequest) (*SwapInitResult, error) {
	return c.initSwap(networkKey, "/api/ccx/wccx/swap/init", req)
}

// InitWccxToCcxSwap register a wccx->ccx swap, obtaining a payment id.
// Never retried automatically (has side effects).
func (c *Client) InitWccxToCcxSwap(networkKey string, req *WccxToCcxInitRequest) (*SwapInitResult, error) {
	return c.initSwap(networkKey, "/api/wccx/ccx/swap/init", req)
}

func (c *Client) initSwap(networkKey, path string, req interface{}) (*SwapInitResult, error) {
	result := &SwapInitResult{}
	err := client.HTTPPost(result, c.networkURL(networkKey, path), req, nil, nil, c.timeout)
	if err != nil {
		return nil, wrapQueryError(err, path)
	}
	return result, nil
}

// ExecWccxToCcxSwap ask the backend to release native ccx for a
// registered wccx->ccx swap. Never retried automatically.
func (c *Client) ExecWccxToCcxSwap(networkKey string, req *SwapExecRequest) (*SwapExecResult, error) {
	path := "/api/wccx/ccx/swap/exec"
	result := &SwapExecResult{}
	err := client.HTTPPost(result, c.networkURL(networkKey, path), req, nil, nil, c.timeout)
	if err != nil {
		return nil, wrapQueryError(err, path)
	}
	return result, nil
}

// GetCcxToWccxStatus query the status of a ccx->wccx swap.
// Read-only and safe to retry, but the polling scheduler owns the
// retry policy, so no automatic retry here.
func (c *Client) GetCcxToWccxStatus(networkKey, paymentID string) (*SwapStatusResult, error) {
	return c.getStatus(networkKey, "/api/ccx/wccx/tx", paymentID)
}

// GetWccxToCcxStatus query the status of a wccx->ccx swap
func (c *Client) GetWccxToCcxStatus(networkKey, paymentID string) (*SwapStatusResult, error) {
	return c.getStatus(networkKey, "/api/wccx/ccx/tx", paymentID)
}

func (c *Client) getStatus(networkKey, path, paymentID string) (*SwapStatusResult, error) {
	result := &SwapStatusResult{}
	err := client.HTTPPost(result, c.networkURL(networkKey, path), &SwapStatusRequest{PaymentID: paymentID}, nil, nil, c.timeout)
	if err != nil {
		return nil, wrapQueryError(err, path)
	}
	return result, nil
}
