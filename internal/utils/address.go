package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress parses a 0x-prefixed EVM address. An empty string maps to
// the zero address, which the fee engine reads as native / no integrator.
func ParseAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

// NormalizeAddress lowercases a hex address for use as a storage key.
func NormalizeAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
