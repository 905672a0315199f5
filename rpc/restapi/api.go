package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/internal/swapapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	// Note: must set header before write header
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err == nil {
		jsonData, _ := json.Marshal(resp)
		_, _ = w.Write(jsonData)
	} else {
		fmt.Fprintln(w, err.Error())
	}
}

// VersionInfoHandler handler
func VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	version := params.VersionWithMeta
	writeResponse(w, version, nil)
}

// ServerInfoHandler handler
func ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	serverInfo := swapapi.GetServerInfo()
	writeResponse(w, serverInfo, nil)
}

// NetworksHandler handler
func NetworksHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, swapapi.GetNetworks(), nil)
}

// ChainConfigHandler handler
func ChainConfigHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := swapapi.GetChainConfig(vars["network"])
	writeResponse(w, res, err)
}

// WalletStateHandler handler
func WalletStateHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, swapapi.GetWalletState(), nil)
}

// ConnectWalletHandler handler
func ConnectWalletHandler(w http.ResponseWriter, r *http.Request) {
	connectorID := r.URL.Query().Get("connector")
	res, err := swapapi.ConnectWallet(connectorID)
	writeResponse(w, res, err)
}

// DisconnectWalletHandler handler
func DisconnectWalletHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, swapapi.DisconnectWallet(), nil)
}

func getSwapKeys(r *http.Request) (direction, network string) {
	vars := mux.Vars(r)
	return vars["direction"], vars["network"]
}

// SubmitSwapHandler handler
func SubmitSwapHandler(w http.ResponseWriter, r *http.Request) {
	direction, network := getSwapKeys(r)
	args := swapapi.SubmitSwapArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeResponse(w, nil, fmt.Errorf("wrong request body: %w", err))
		return
	}
	args.Direction = direction
	args.NetworkKey = network
	res, err := swapapi.SubmitSwap(&args)
	writeResponse(w, res, err)
}

// SwapStatusHandler handler
func SwapStatusHandler(w http.ResponseWriter, r *http.Request) {
	direction, network := getSwapKeys(r)
	res, err := swapapi.GetSwapStatus(direction, network)
	writeResponse(w, res, err)
}

// ResetSwapHandler handler
func ResetSwapHandler(w http.ResponseWriter, r *http.Request) {
	direction, network := getSwapKeys(r)
	res, err := swapapi.ResetSwap(direction, network)
	writeResponse(w, res, err)
}

// SwapHistoryHandler handler
func SwapHistoryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	network := vars["network"]
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			writeResponse(w, nil, fmt.Errorf("wrong limit '%v'", limitStr))
			return
		}
		limit = parsed
	}
	if address := r.URL.Query().Get("address"); address != "" {
		res, err := swapapi.GetSwapHistoryByAddress(address, limit)
		writeResponse(w, res, err)
		return
	}
	res, err := swapapi.GetSwapHistory(network, limit)
	writeResponse(w, res, err)
}
