// Package services contains application services for the rair wallet client.
// This file defines SessionService, which runs the wallet challenge login:
// user bootstrap, admin-rights check, session token issue and caching.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/afocalor/rair-dapp/internal/client/client"
	"github.com/afocalor/rair-dapp/internal/client/repositories/metadata"
	"github.com/afocalor/rair-dapp/internal/client/wallet"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/ethx"
	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// TempAdminNFT is the placeholder admin NFT new users are registered with.
const TempAdminNFT = "temp"

// State is a step of the login flow.
type State int

const (
	StateIdle State = iota
	StateLoginStarted
	StateChallengeRequested
	StateSignaturePending
	StateAdminRightsChecked
	StateTokenIssued
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoginStarted:
		return "loginStarted"
	case StateChallengeRequested:
		return "challengeRequested"
	case StateSignaturePending:
		return "signaturePending"
	case StateAdminRightsChecked:
		return "adminRightsChecked"
	case StateTokenIssued:
		return "tokenIssued"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the outcome of a completed login.
type Session struct {
	Address     string
	AdminAccess bool
	Token       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// SessionService drives the login flow against the backend. It is safe for
// concurrent use; logins are serialised.
type SessionService struct {
	client   client.Client
	provider wallet.Provider
	db       *sql.DB
	logger   logging.Logger
	skew     time.Duration
	now      func() time.Time

	loginMu sync.Mutex

	mu      sync.RWMutex
	state   State
	session *Session
}

// NewSessionService wires the flow. provider may be nil when no wallet is
// connected; db holds the token cache.
func NewSessionService(c client.Client, provider wallet.Provider, db *sql.DB, logger logging.Logger, skew time.Duration) *SessionService {
	return &SessionService{
		client:   c,
		provider: provider,
		db:       db,
		logger:   logger.With("module", "session"),
		skew:     skew,
		now:      time.Now,
	}
}

func (s *SessionService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SessionService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SessionService) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	if prev != st {
		s.logger.Debug(context.Background(), "login state", "from", prev.String(), "to", st.String())
	}
}

// Session returns a copy of the current session, or nil before login.
func (s *SessionService) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// LoginDone reports whether a session token has been obtained.
func (s *SessionService) LoginDone() bool {
	return s.State() == StateTokenIssued
}

func (s *SessionService) getProvider() wallet.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetProvider connects a wallet, or disconnects it when p is nil. The
// current session is kept until the next login or logout.
func (s *SessionService) SetProvider(p wallet.Provider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// ProviderAvailable reports whether a wallet is connected.
func (s *SessionService) ProviderAvailable() bool {
	return s.getProvider() != nil
}

// Login runs the full flow. A cached token that is still valid for the
// wallet's address is reused instead of signing a second challenge.
//
// wallet.ErrProviderUnavailable and wallet.ErrSignatureRejected put the
// flow back to idle; any other failure leaves it in StateFailed.
func (s *SessionService) Login(ctx context.Context) (*Session, error) {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()
	return s.login(ctx, true)
}

func (s *SessionService) login(ctx context.Context, useCache bool) (sess *Session, err error) {
	s.setState(StateLoginStarted)
	defer func() {
		switch {
		case err == nil:
		case errors.Is(err, wallet.ErrProviderUnavailable), errors.Is(err, wallet.ErrSignatureRejected):
			s.setState(StateIdle)
		default:
			s.setState(StateFailed)
		}
	}()

	p := s.getProvider()
	if p == nil {
		return nil, wallet.ErrProviderUnavailable
	}
	raw, err := p.Address(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := ethx.NormalizeAddress(raw)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUser(ctx, addr); err != nil {
		return nil, err
	}

	nonce, sig, err := s.signChallenge(ctx, p, addr)
	if err != nil {
		return nil, err
	}
	admin, err := s.client.CheckAdmin(ctx, nonce, sig)
	if err != nil {
		return nil, fmt.Errorf("admin check: %w", err)
	}
	s.setState(StateAdminRightsChecked)

	token, info := "", tokenInfo{}
	if useCache {
		token, info = s.cachedToken(ctx, addr)
	}
	if token == "" {
		nonce, sig, err := s.signChallenge(ctx, p, addr)
		if err != nil {
			return nil, err
		}
		token, err = s.client.IssueToken(ctx, nonce, sig)
		if err != nil {
			return nil, fmt.Errorf("token issue: %w", err)
		}
		info, err = tokenClaims(token)
		if err != nil {
			return nil, err
		}
		if info.issuedAt.IsZero() {
			info.issuedAt = s.now()
		}
		if err := s.saveToken(ctx, addr, token, admin); err != nil {
			s.logger.Warn(ctx, "session cache write failed", "error", err)
		}
	}
	exp := info.expiresAt

	s.client.SetToken(token)
	sess = &Session{Address: addr, AdminAccess: admin, Token: token, IssuedAt: info.issuedAt, ExpiresAt: exp}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.setState(StateTokenIssued)

	s.logger.Info(ctx, "logged in", "address", addr, "admin", admin, "expires", exp)
	cp := *sess
	return &cp, nil
}

// ensureUser registers addr with a temporary admin NFT if the backend does
// not know it yet.
func (s *SessionService) ensureUser(ctx context.Context, addr string) error {
	_, err := s.client.GetUser(ctx, addr)
	if err == nil {
		return nil
	}
	if !errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("user lookup: %w", err)
	}
	s.logger.Info(ctx, "address is not registered", "address", addr)
	if _, err := s.client.RegisterUser(ctx, addr, TempAdminNFT); err != nil {
		return fmt.Errorf("user registration: %w", err)
	}
	return nil
}

// signChallenge fetches a challenge for addr and has the wallet sign it.
func (s *SessionService) signChallenge(ctx context.Context, p wallet.Provider, addr string) (nonce, sig string, err error) {
	s.setState(StateChallengeRequested)
	raw, err := s.client.GetChallenge(ctx, addr)
	if err != nil {
		return "", "", fmt.Errorf("challenge: %w", err)
	}
	td, err := ethx.ParseTypedData([]byte(raw))
	if err != nil {
		return "", "", fmt.Errorf("challenge: %w", err)
	}
	nonce, _ = td.Message["challenge"].(string)
	if nonce == "" {
		return "", "", errors.New("challenge: missing nonce")
	}

	s.setState(StateSignaturePending)
	sig, err = p.SignTypedData(ctx, addr, raw)
	if err != nil {
		return "", "", err
	}
	return nonce, sig, nil
}

// cachedToken returns the cached token when it belongs to addr and will
// not expire within the refresh skew.
func (s *SessionService) cachedToken(ctx context.Context, addr string) (string, tokenInfo) {
	b, err := s.getMetadataRepo(s.db).Get(ctx, metadata.KeyToken)
	if err != nil || len(b) == 0 {
		return "", tokenInfo{}
	}
	token := string(b)
	info, err := tokenClaims(token)
	if err != nil || info.owner != addr || !s.now().Add(s.skew).Before(info.expiresAt) {
		return "", tokenInfo{}
	}
	return token, info
}

func (s *SessionService) saveToken(ctx context.Context, addr, token string, admin bool) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.getMetadataRepo(tx)
		if err := repo.Set(ctx, metadata.KeyToken, []byte(token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeyAddress, []byte(addr)); err != nil {
			return err
		}
		flag := "false"
		if admin {
			flag = "true"
		}
		return repo.Set(ctx, metadata.KeyAdminAccess, []byte(flag))
	})
}

// Logout forgets the session and its cached token.
func (s *SessionService) Logout(ctx context.Context) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	s.client.SetToken("")
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	s.setState(StateIdle)

	return s.getMetadataRepo(s.db).Delete(ctx, metadata.KeyToken, metadata.KeyAddress, metadata.KeyAdminAccess)
}

type tokenInfo struct {
	owner     string
	issuedAt  time.Time
	expiresAt time.Time
}

// tokenClaims reads publicAddress, iat and exp without verifying the
// signature; the backend does that. A missing iat leaves issuedAt zero.
func tokenClaims(token string) (tokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenInfo{}, fmt.Errorf("parse session token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return tokenInfo{}, errors.New("session token has no exp claim")
	}
	info := tokenInfo{expiresAt: exp.Time}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.issuedAt = iat.Time
	}
	addr, _ := claims["publicAddress"].(string)
	info.owner = strings.ToLower(addr)
	return info, nil
}
