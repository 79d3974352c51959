package auth

import (
	"errors"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims.
type Claims struct {
	jwt.RegisteredClaims
	PublicAddress string `json:"publicAddress"`
	SuperAdmin    bool   `json:"superAdmin"`
}

func GenerateToken(session AuthContext, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		PublicAddress: session.PublicAddress,
		SuperAdmin:    session.SuperAdmin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates a session token and returns the caller it names.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (AuthContext, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AuthContext{}, common.ErrTokenExpired
		}
		return AuthContext{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.PublicAddress == "" {
		return AuthContext{}, common.ErrInvalidToken
	}

	return AuthContext{PublicAddress: claims.PublicAddress, SuperAdmin: claims.SuperAdmin}, nil
}
