// Package ethx wraps the go-ethereum helpers used for wallet logins:
// address handling, EIP-712 typed data and signature recovery.
package ethx

import (
	"fmt"
	"strings"

	"github.com/afocalor/rair-dapp/internal/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates a hex address and returns it lowercased with
// the 0x prefix. Mixed-case input is accepted without checksum validation.
func NormalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if !ethcommon.IsHexAddress(a) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidAddress, addr)
	}
	return strings.ToLower(ethcommon.HexToAddress(a).Hex()), nil
}

// ChecksumAddress renders addr in EIP-55 mixed case.
func ChecksumAddress(addr string) (string, error) {
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return "", err
	}
	return ethcommon.HexToAddress(norm).Hex(), nil
}
