package swap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCcxAddress(t *testing.T) {
	assert.True(t, IsValidCcxAddress(testCcxAddress))
	assert.False(t, IsValidCcxAddress(""))
	assert.False(t, IsValidCcxAddress(testCcxAddress[:97]), "too short")
	assert.False(t, IsValidCcxAddress(testCcxAddress+"x"), "too long")
	wrongPrefix := "abcd" + testCcxAddress[4:]
	assert.False(t, IsValidCcxAddress(wrongPrefix))
	assert.Len(t, testCcxAddress, 98)
	assert.True(t, strings.HasPrefix(testCcxAddress, "ccx7"))
}

func TestValidateEvmToCcxOptionalFromAddress(t *testing.T) {
	swapCtx := &Context{
		Direction: DirectionEvmToCcx,
		Config:    testChainConfig(),
	}
	// from side comes from the connected wallet when omitted
	err := (&Request{Amount: 50, ToAddress: testCcxAddress}).Validate(swapCtx)
	assert.NoError(t, err)

	err = (&Request{Amount: 50, FromAddress: "bogus", ToAddress: testCcxAddress}).Validate(swapCtx)
	assert.ErrorIs(t, err, ErrInvalidEvmAddress)
}
