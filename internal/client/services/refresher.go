package services

import (
	"context"
	"errors"
	"time"

	"github.com/afocalor/rair-dapp/internal/client/client"
	"github.com/afocalor/rair-dapp/internal/client/wallet"
	"github.com/cenkalti/backoff/v4"
)

// newRefreshPolicy bounds re-login attempts while the backend is unreachable.
var newRefreshPolicy = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// minRefreshWait is the shortest pause between two refreshes.
var minRefreshWait = time.Second

// Relogin drops the cached token and runs the login flow again. Transient
// backend outages are retried; wallet errors are not.
func (s *SessionService) Relogin(ctx context.Context) (*Session, error) {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	var sess *Session
	op := func() error {
		var err error
		sess, err = s.login(ctx, false)
		if err == nil {
			return nil
		}
		if errors.Is(err, client.ErrUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, backoff.WithContext(newRefreshPolicy(), ctx)); err != nil {
		return nil, err
	}
	return sess, nil
}

// RunRefresher re-runs the login flow shortly before the session token
// expires. It returns when ctx is done, when there is no session, or when
// a refresh fails.
func (s *SessionService) RunRefresher(ctx context.Context) {
	for {
		sess := s.Session()
		if sess == nil || sess.ExpiresAt.IsZero() {
			return
		}

		wait := sess.ExpiresAt.Sub(s.now()) - s.refreshLead(sess)
		if wait < minRefreshWait {
			wait = minRefreshWait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// a login in the meantime may have pushed the expiry out
		if cur := s.Session(); cur != nil && cur.ExpiresAt.After(s.now().Add(s.refreshLead(cur))) {
			continue
		}

		s.logger.Info(ctx, "refreshing session token", "address", sess.Address)
		if _, err := s.Relogin(ctx); err != nil {
			if ctx.Err() == nil {
				s.logger.Error(ctx, "session refresh failed", "error", err)
			}
			return
		}
	}
}

// refreshLead is how long before expiry a refresh starts: the configured
// skew, capped at half the token lifetime so that short-lived tokens are
// not due the moment they are issued.
func (s *SessionService) refreshLead(sess *Session) time.Duration {
	lead := s.skew
	if sess.IssuedAt.IsZero() {
		return lead
	}
	if half := sess.ExpiresAt.Sub(sess.IssuedAt) / 2; half < lead {
		lead = half
	}
	if lead < 0 {
		lead = 0
	}
	return lead
}

// Do runs fn and, if the backend rejects the session token, logs in again
// and retries fn once.
func (s *SessionService) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, client.ErrUnauthorized) || !s.ProviderAvailable() {
		return err
	}
	s.logger.Info(ctx, "session token rejected, logging in again", "error", err)
	if _, lerr := s.Relogin(ctx); lerr != nil {
		if errors.Is(lerr, wallet.ErrSignatureRejected) {
			return err
		}
		return lerr
	}
	return fn(ctx)
}
