package swap

import (
	"errors"
	"fmt"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

// sentinel errors of the swap package
var (
	ErrBusy                  = errors.New("another swap action is already in progress")
	ErrInvalidDirection      = errors.New("invalid swap direction")
	ErrInvalidCcxAddress     = errors.New("invalid ccx address")
	ErrInvalidEvmAddress     = errors.New("invalid evm address")
	ErrAmountOutOfBounds     = errors.New("amount out of bounds")
	ErrInsufficientLiquidity = errors.New("insufficient bridge liquidity")
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrPollingExhausted      = errors.New("status polling exhausted")
)

// IsValidationError reports whether the error was caught before any
// wallet or network action
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrInvalidCcxAddress) ||
		errors.Is(err, ErrInvalidEvmAddress) ||
		errors.Is(err, ErrAmountOutOfBounds) ||
		errors.Is(err, ErrInsufficientLiquidity)
}

// UserMessage converts a low level failure into user facing status
// text. The single place wallet error codes become words.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case wallet.IsUserRejected(err):
		return "Transaction cancelled in your wallet."
	case wallet.IsRequestPending(err):
		return "A request is already pending, please check your wallet."
	case errors.Is(err, wallet.ErrNoProvider):
		return "No wallet found. Please install a supported wallet."
	case errors.Is(err, wallet.ErrNoAccount):
		return "Your wallet returned no account."
	case errors.Is(err, ErrBusy):
		return "Another action is already in progress."
	default:
		return err.Error()
	}
}

func amountBoundsError(min, max float64) error {
	return fmt.Errorf("%w: valid range is %v to %v CCX", ErrAmountOutOfBounds, min, max)
}
