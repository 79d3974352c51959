// Package services contains server-side business logic. This file implements
// AuthService, which hands out wallet challenges, checks signed answers and
// issues session JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/ethx"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	"github.com/afocalor/rair-dapp/internal/server/config"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
)

// nonceSize is the number of random bytes in a challenge nonce.
const nonceSize = 16

// AuthService provides the wallet login operations:
// - Challenge: mint a single-use EIP-712 challenge for an address
// - CheckAdmin: verify a signed challenge and report super-admin rights
// - IssueToken: verify a signed challenge and mint a session token
type AuthService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	challengeValidityDuration   time.Duration
	domainName                  string
	now                         func() time.Time
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		challengeValidityDuration:   cfg.ChallengeValidityDuration,
		domainName:                  cfg.DomainName,
		now:                         time.Now,
	}
}

// Challenge stores a fresh nonce for address and returns the typed data
// JSON the wallet has to sign.
func (s *AuthService) Challenge(ctx context.Context, address string) (string, error) {
	addr, err := ethx.NormalizeAddress(address)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	nonce, err := common.MakeRandHexString(nonceSize)
	if err != nil {
		return "", common.ErrorInternal
	}

	repo := s.repomanager.Challenges(s.db)
	if err := repo.Create(ctx, &models.Challenge{
		Nonce:         nonce,
		PublicAddress: addr,
		ExpiresAt:     s.now().Add(s.challengeValidityDuration),
	}); err != nil {
		return "", fmt.Errorf("error storing challenge: %w", err)
	}

	return auth.ChallengeJSON(s.domainName, nonce)
}

// CheckAdmin verifies a signed challenge and reports whether the signer is a
// super-admin. Unknown users have no admin rights.
func (s *AuthService) CheckAdmin(ctx context.Context, nonce, signature string) (bool, error) {
	addr, err := s.verify(ctx, nonce, signature)
	if err != nil {
		return false, err
	}

	user, err := s.repomanager.Users(s.db).GetByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error loading user: %w", err)
	}
	return user.SuperAdmin, nil
}

// IssueToken verifies a signed challenge and returns a session token for
// the signer. The signer must be a registered user.
func (s *AuthService) IssueToken(ctx context.Context, nonce, signature string) (string, error) {
	addr, err := s.verify(ctx, nonce, signature)
	if err != nil {
		return "", err
	}

	user, err := s.repomanager.Users(s.db).GetByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	token, err := auth.GenerateToken(auth.AuthContext{
		PublicAddress: user.PublicAddress,
		SuperAdmin:    user.SuperAdmin,
	}, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate resolves a session token into the caller it names.
func (s *AuthService) Authenticate(token string) (auth.AuthContext, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// PurgeExpiredChallenges drops challenges nobody answered in time.
func (s *AuthService) PurgeExpiredChallenges(ctx context.Context) (int64, error) {
	return s.repomanager.Challenges(s.db).DeleteExpired(ctx, s.now())
}

// verify consumes the challenge and checks that signature was produced by
// the address the challenge was issued to.
func (s *AuthService) verify(ctx context.Context, nonce, signature string) (string, error) {
	c, err := s.repomanager.Challenges(s.db).Consume(ctx, nonce)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading challenge: %w", err)
	}
	if !s.now().Before(c.ExpiresAt) {
		return "", common.ErrChallengeExpired
	}

	signer, err := auth.RecoverChallengeSigner(s.domainName, c.Nonce, signature)
	if err != nil {
		return "", err
	}
	if signer != c.PublicAddress {
		return "", common.ErrInvalidSignature
	}
	return signer, nil
}
