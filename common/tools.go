// Package common provides shared helpers for hex, big integer and
// string conversions used across the swap client.
package common

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrWrongNumberValue wrong number value error
var ErrWrongNumberValue = errors.New("wrong number value")

// GetBigIntFromStr new big int from string, support hex and decimal form
func GetBigIntFromStr(str string) (*big.Int, error) {
	if str == "" {
		return nil, fmt.Errorf("%w: empty string", ErrWrongNumberValue)
	}
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		bi, ok := new(big.Int).SetString(str[2:], 16)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrWrongNumberValue, str)
		}
		return bi, nil
	}
	bi, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrWrongNumberValue, str)
	}
	return bi, nil
}

// GetUint64FromStr new uint64 from string, support hex and decimal form
func GetUint64FromStr(str string) (uint64, error) {
	bi, err := GetBigIntFromStr(str)
	if err != nil {
		return 0, err
	}
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %v is not uint64", ErrWrongNumberValue, str)
	}
	return bi.Uint64(), nil
}

// IsHexAddress verifies whether a string can represent a valid
// hex-encoded EVM address or not.
func IsHexAddress(addr string) bool {
	return ethcommon.IsHexAddress(addr)
}

// HexToAddress convert hex string to EVM address
func HexToAddress(addr string) ethcommon.Address {
	return ethcommon.HexToAddress(addr)
}

// IsEqualIgnoreCase returns if s1 and s2 are equal ignore case
func IsEqualIgnoreCase(s1, s2 string) bool {
	return strings.EqualFold(s1, s2)
}

// ToHexUint64 encode uint64 to quantity hex string (eg. 0x61)
func ToHexUint64(val uint64) string {
	return hexutil.EncodeUint64(val)
}

// ToHexBig encode big int to quantity hex string
func ToHexBig(val *big.Int) string {
	if val == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(val)
}

// BigFromUnits convert an amount of whole coins to atomic units.
// eg. amount=1.5 units=1000000 -> 1500000
func BigFromUnits(amount float64, units uint64) *big.Int {
	fAmount := new(big.Float).SetFloat64(amount)
	fUnits := new(big.Float).SetUint64(units)
	result, _ := new(big.Float).Mul(fAmount, fUnits).Int(nil)
	return result
}

// FloatFromUnits convert atomic units back to an amount of whole coins.
func FloatFromUnits(value *big.Int, units uint64) float64 {
	if value == nil || units == 0 {
		return 0
	}
	fValue := new(big.Float).SetInt(value)
	fUnits := new(big.Float).SetUint64(units)
	result, _ := new(big.Float).Quo(fValue, fUnits).Float64()
	return result
}
