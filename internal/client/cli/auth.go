package cli

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/afocalor/rair-dapp/internal/client/wallet"
	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/ethx"
)

// Login connects a wallet if there is none yet and runs the challenge
// login. Declining the signature prompt aborts without a message.
func (a *App) Login(ctx context.Context) error {
	if !a.session.ProviderAvailable() {
		if err := a.connectWallet(); err != nil {
			a.printf("Could not open wallet: %v\n", err)
			return err
		}
	}

	a.setInteractive(true)
	sess, err := a.session.Login(ctx)
	a.setInteractive(false)
	switch {
	case errors.Is(err, wallet.ErrSignatureRejected):
		return nil
	case errors.Is(err, wallet.ErrProviderUnavailable):
		a.printf("No wallet available, log in again to unlock one\n")
		a.disconnectWallet()
		return err
	case err != nil:
		a.printf("Login failed: %v\n", err)
		return err
	}

	role := ""
	if sess.AdminAccess {
		role = " (admin)"
	}
	a.printf("Logged in as %s%s\n", sess.Address, role)
	a.startRefresher(ctx)
	return nil
}

// Logout drops the session, its cached token and the wallet key.
func (a *App) Logout(ctx context.Context) error {
	a.haltRefresher()
	err := a.session.Logout(ctx)
	a.disconnectWallet()
	if err != nil {
		a.logger.Warn(ctx, "clearing session cache", "error", err)
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func (a *App) connectWallet() error {
	key, err := GetSecret("Private key", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	p, err := wallet.NewKeyProvider(strings.TrimSpace(string(key)), a.confirmSignature)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.wallet = p
	a.mu.Unlock()
	a.session.SetProvider(p)
	return nil
}

func (a *App) disconnectWallet() {
	a.mu.Lock()
	p := a.wallet
	a.wallet = nil
	a.mu.Unlock()
	if p != nil {
		p.Lock()
	}
	a.session.SetProvider(nil)
}

func (a *App) setInteractive(v bool) {
	a.mu.Lock()
	a.interactive = v
	a.mu.Unlock()
}

// confirmSignature shows what is about to be signed and asks the user.
// Requests made by the background refresher are approved without asking,
// the REPL owns the input then.
func (a *App) confirmSignature(td *ethx.TypedData) bool {
	a.mu.Lock()
	interactive := a.interactive
	a.mu.Unlock()
	if !interactive {
		a.logger.Debug(context.Background(), "signing refresh challenge", "domain", td.Domain.Name)
		return true
	}

	a.printf("Signature request from %s\n", td.Domain.Name)
	keys := make([]string, 0, len(td.Message))
	for k := range td.Message {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("  %s: %v\n", k, td.Message[k])
	}
	return Confirm(a.reader, "Sign this message?", a.out)
}

func (a *App) startRefresher(ctx context.Context) {
	a.haltRefresher()
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.stopRefresher = cancel
	a.mu.Unlock()
	go a.session.RunRefresher(ctx)
}

func (a *App) haltRefresher() {
	a.mu.Lock()
	cancel := a.stopRefresher
	a.stopRefresher = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
