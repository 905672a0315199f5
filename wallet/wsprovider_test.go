package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

func wsEndpoint(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSProviderRequestResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req jsonrpcRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  []string{"0x1111111111111111111111111111111111111111"},
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p, err := DialWS(wsEndpoint(srv))
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := p.Request(ctx, MethodAccounts)
	require.NoError(t, err)

	var accounts []string
	require.NoError(t, json.Unmarshal(raw, &accounts))
	assert.Equal(t, []string{"0x1111111111111111111111111111111111111111"}, accounts)
}

func TestWSProviderRequestFailsAfterTransportLoss(t *testing.T) {
	remoteGone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
		close(remoteGone)
	}))
	defer srv.Close()

	p, err := DialWS(wsEndpoint(srv))
	require.NoError(t, err)
	defer p.Close()

	select {
	case <-remoteGone:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the session")
	}

	// requests on a dead transport must fail, never hang, even with a
	// background context
	done := make(chan error, 1)
	go func() {
		_, reqErr := p.Request(context.Background(), MethodAccounts)
		done <- reqErr
	}()
	select {
	case reqErr := <-done:
		require.Error(t, reqErr)
	case <-time.After(3 * time.Second):
		t.Fatal("request hung after transport loss")
	}
}

func TestWSProviderPendingRequestFailedOnRemoteClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// swallow one request and drop the session without answering
		var req jsonrpcRequest
		_ = conn.ReadJSON(&req)
		conn.Close()
	}))
	defer srv.Close()

	p, err := DialWS(wsEndpoint(srv))
	require.NoError(t, err)
	defer p.Close()

	done := make(chan error, 1)
	go func() {
		_, reqErr := p.Request(context.Background(), MethodAccounts)
		done <- reqErr
	}()
	select {
	case reqErr := <-done:
		require.Error(t, reqErr)
		assert.Contains(t, reqErr.Error(), "closed")
	case <-time.After(3 * time.Second):
		t.Fatal("in-flight request not failed on remote close")
	}
}

func TestWSProviderRequestAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p, err := DialWS(wsEndpoint(srv))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Request(context.Background(), MethodAccounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
