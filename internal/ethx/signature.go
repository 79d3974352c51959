package ethx

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is r || s || v.
const SignatureLength = crypto.SignatureLength

// ParsePrivateKey reads a hex encoded 32-byte secp256k1 key.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// AddressOf returns the lowercased address controlled by key.
func AddressOf(key *ecdsa.PrivateKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

// WipeKey zeroes the private scalar in place.
func WipeKey(key *ecdsa.PrivateKey) {
	b := key.D.Bits()
	for i := range b {
		b[i] = 0
	}
}

// Sign produces a wallet style r || s || v signature over a 32-byte
// digest, with v in {27, 28}.
func Sign(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// DecodeSignature parses a hex signature, with or without the 0x prefix.
func DecodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: length %d", common.ErrInvalidSignature, len(sig))
	}
	return sig, nil
}

// EncodeSignature renders sig as 0x-prefixed hex.
func EncodeSignature(sig []byte) string {
	return hexutil.Encode(sig)
}

// RecoverAddress returns the address whose key produced sig over digest.
// Both v conventions (0/1 and 27/28) are accepted.
func RecoverAddress(digest, sig []byte) (string, error) {
	if len(sig) != SignatureLength {
		return "", fmt.Errorf("%w: length %d", common.ErrInvalidSignature, len(sig))
	}
	rs := make([]byte, SignatureLength)
	copy(rs, sig)
	if rs[crypto.RecoveryIDOffset] >= 27 {
		rs[crypto.RecoveryIDOffset] -= 27
	}
	if v := rs[crypto.RecoveryIDOffset]; v != 0 && v != 1 {
		return "", fmt.Errorf("%w: bad recovery id %d", common.ErrInvalidSignature, sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(digest, rs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}
