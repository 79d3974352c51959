// Package wallet abstracts the signer the client logs in with. A Provider
// plays the part a browser wallet plays for the web client: it names the
// active account and signs EIP-712 typed data on the user's behalf.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/afocalor/rair-dapp/internal/ethx"
)

var (
	// ErrProviderUnavailable means there is no wallet to talk to.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	// ErrSignatureRejected means the user declined to sign.
	ErrSignatureRejected = errors.New("signature rejected by user")
)

// Provider is an Ethereum wallet.
type Provider interface {
	// Address returns the active account, lowercased.
	Address(ctx context.Context) (string, error)
	// SignTypedData answers eth_signTypedData_v4 for address.
	SignTypedData(ctx context.Context, address, typedDataJSON string) (string, error)
}

// ConfirmFunc asks the user to approve a signature request.
type ConfirmFunc func(td *ethx.TypedData) bool

// KeyProvider signs with an in-memory private key.
type KeyProvider struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	address string
	confirm ConfirmFunc
}

// NewKeyProvider builds a provider from a hex private key. A nil confirm
// approves every request.
func NewKeyProvider(hexKey string, confirm ConfirmFunc) (*KeyProvider, error) {
	key, err := ethx.ParsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	return &KeyProvider{key: key, address: ethx.AddressOf(key), confirm: confirm}, nil
}

func (p *KeyProvider) Address(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == nil {
		return "", ErrProviderUnavailable
	}
	return p.address, nil
}

func (p *KeyProvider) SignTypedData(ctx context.Context, address, typedDataJSON string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == nil {
		return "", ErrProviderUnavailable
	}
	if !strings.EqualFold(address, p.address) {
		return "", fmt.Errorf("unknown account %s", address)
	}

	td, err := ethx.ParseTypedData([]byte(typedDataJSON))
	if err != nil {
		return "", err
	}
	if p.confirm != nil && !p.confirm(td) {
		return "", ErrSignatureRejected
	}

	digest, err := ethx.HashTypedData(td)
	if err != nil {
		return "", err
	}
	sig, err := ethx.Sign(p.key, digest)
	if err != nil {
		return "", err
	}
	return ethx.EncodeSignature(sig), nil
}

// Lock wipes the key. The provider is unavailable afterwards.
func (p *KeyProvider) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key != nil {
		ethx.WipeKey(p.key)
		p.key = nil
	}
}
