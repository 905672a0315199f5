package swap

import (
	"fmt"
	"strings"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
)

// ccx address format constants
const (
	ccxAddressPrefix = "ccx7"
	ccxAddressLength = 98
)

// IsValidCcxAddress check ccx address format
func IsValidCcxAddress(address string) bool {
	return len(address) == ccxAddressLength && strings.HasPrefix(address, ccxAddressPrefix)
}

// Request is the validated user input of one swap submission.
// For ccx-to-evm, FromAddress is the user's ccx address and ToAddress
// the evm address receiving wccx. For evm-to-ccx the from side is the
// connected wallet account and ToAddress the ccx address receiving
// native coin.
type Request struct {
	Amount      float64
	FromAddress string
	ToAddress   string
	Email       string
}

// Validate check the request against the swap context.
// Runs before any wallet or network action.
func (req *Request) Validate(swapCtx *Context) error {
	if !swapCtx.Direction.IsValid() {
		return fmt.Errorf("%w: '%v'", ErrInvalidDirection, swapCtx.Direction)
	}
	min := swapCtx.Config.Common.MinSwapAmount
	max := swapCtx.Config.Common.MaxSwapAmount
	if req.Amount < min || req.Amount > max {
		return amountBoundsError(min, max)
	}
	switch swapCtx.Direction {
	case DirectionCcxToEvm:
		if !IsValidCcxAddress(req.FromAddress) {
			return fmt.Errorf("%w: '%v'", ErrInvalidCcxAddress, req.FromAddress)
		}
		if !common.IsHexAddress(req.ToAddress) {
			return fmt.Errorf("%w: '%v'", ErrInvalidEvmAddress, req.ToAddress)
		}
	case DirectionEvmToCcx:
		if !IsValidCcxAddress(req.ToAddress) {
			return fmt.Errorf("%w: '%v'", ErrInvalidCcxAddress, req.ToAddress)
		}
		if req.FromAddress != "" && !common.IsHexAddress(req.FromAddress) {
			return fmt.Errorf("%w: '%v'", ErrInvalidEvmAddress, req.FromAddress)
		}
	}
	return nil
}
