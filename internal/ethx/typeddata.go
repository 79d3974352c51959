package ethx

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedData is the eth_signTypedData_v4 payload.
type TypedData = apitypes.TypedData

// ParseTypedData decodes a JSON payload.
func ParseTypedData(raw []byte) (*TypedData, error) {
	td := &TypedData{}
	if err := json.Unmarshal(raw, td); err != nil {
		return nil, fmt.Errorf("parse typed data: %w", err)
	}
	if td.PrimaryType == "" {
		return nil, errors.New("parse typed data: missing primaryType")
	}
	return td, nil
}

// HashTypedData returns the digest that wallets sign:
// keccak256(0x19 0x01 || domainSeparator || hashStruct(message)).
func HashTypedData(td *TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(*td)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return digest, nil
}
