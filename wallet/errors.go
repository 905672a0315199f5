package wallet

import (
	"errors"
	"fmt"
)

// provider error codes (EIP-1193 / EIP-1474)
const (
	CodeUserRejected   = 4001
	CodeUnknownChain   = 4902
	CodeRequestPending = -32002
)

// common errors
var (
	ErrNoProvider      = errors.New("no wallet provider available")
	ErrNoAccount       = errors.New("wallet returned no account")
	ErrNotConnected    = errors.New("wallet not connected")
	ErrNoSuchConnector = errors.New("no such connector")
)

// RPCError provider originated error with numeric code.
// Codes pass through unmodified so upper layers can classify.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements error
func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %v: %v", e.Code, e.Message)
}

// ErrorCode extract the provider error code, 0 if none
func ErrorCode(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}

// IsUserRejected user declined the wallet prompt
func IsUserRejected(err error) bool {
	return ErrorCode(err) == CodeUserRejected
}

// IsRequestPending a previous wallet prompt is still open
func IsRequestPending(err error) bool {
	return ErrorCode(err) == CodeRequestPending
}

// IsUnknownChain the wallet does not know the requested chain
func IsUnknownChain(err error) bool {
	return ErrorCode(err) == CodeUnknownChain
}
