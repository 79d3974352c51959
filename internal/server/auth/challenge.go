package auth

import (
	"encoding/json"

	"github.com/afocalor/rair-dapp/internal/ethx"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ChallengeDescription is shown by wallets next to the nonce.
const ChallengeDescription = "Sign in with RAIR"

// ChallengeTypedData builds the EIP-712 payload a wallet signs to prove it
// controls an address.
func ChallengeTypedData(domainName, nonce string) *ethx.TypedData {
	return &ethx.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {{Name: "name", Type: "string"}},
			"Challenge": {
				{Name: "challenge", Type: "string"},
				{Name: "description", Type: "string"},
			},
		},
		PrimaryType: "Challenge",
		Domain:      apitypes.TypedDataDomain{Name: domainName},
		Message:     apitypes.TypedDataMessage{"challenge": nonce, "description": ChallengeDescription},
	}
}

// ChallengeJSON renders the challenge payload as sent to clients.
func ChallengeJSON(domainName, nonce string) (string, error) {
	b, err := json.Marshal(ChallengeTypedData(domainName, nonce))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RecoverChallengeSigner returns the lowercased address that produced
// signature over the challenge for nonce.
func RecoverChallengeSigner(domainName, nonce, signature string) (string, error) {
	digest, err := ethx.HashTypedData(ChallengeTypedData(domainName, nonce))
	if err != nil {
		return "", err
	}
	sig, err := ethx.DecodeSignature(signature)
	if err != nil {
		return "", err
	}
	return ethx.RecoverAddress(digest, sig)
}
