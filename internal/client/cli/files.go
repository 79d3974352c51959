package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/afocalor/rair-dapp/internal/client/client"
	"github.com/afocalor/rair-dapp/internal/client/models"
	"github.com/afocalor/rair-dapp/internal/client/routes"
	"github.com/afocalor/rair-dapp/internal/filex"
	"github.com/afocalor/rair-dapp/internal/netx"
)

// download is a test seam for netx.Download.
var download = netx.Download

// Files lists the files a token unlocks.
func (a *App) Files(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: files <tokenID>\n")
		return nil
	}

	var files []*models.File
	err := a.session.Do(ctx, func(ctx context.Context) error {
		var err error
		files, err = a.api.FilesForToken(ctx, args[0])
		return err
	})
	if err != nil {
		a.reportError(err)
		return err
	}

	if len(files) == 0 {
		a.printf("Token %s unlocks no files\n", args[0])
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tDEMO")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", f.ID, f.Title, f.Category, f.Demo)
	}
	return tw.Flush()
}

// Stream prints a playback link for a file. With "save" it also downloads
// the content into the downloads directory.
//
//	stream <fileID> [tokenID] [save]
func (a *App) Stream(ctx context.Context, args []string) error {
	save := false
	if n := len(args); n > 0 && args[n-1] == "save" {
		save = true
		args = args[:n-1]
	}
	if len(args) < 1 || len(args) > 2 {
		a.printf("Usage: stream <fileID> [tokenID] [save]\n")
		return nil
	}
	fileID, tokenID := args[0], ""
	if len(args) == 2 {
		tokenID = args[1]
	}

	var link *models.StreamLink
	err := a.session.Do(ctx, func(ctx context.Context) error {
		var err error
		link, err = a.api.StreamLink(ctx, fileID, tokenID)
		return err
	})
	if err != nil {
		a.reportError(err)
		return err
	}

	ttl := time.Duration(link.ExpiresIn) * time.Second
	a.printf("%s\n(valid for %s)\n", link.URL, ttl)
	if !save {
		return nil
	}
	return a.save(ctx, fileID, link.URL)
}

func (a *App) save(ctx context.Context, fileID, url string) error {
	dir, err := filex.EnsureSubdDir(downloadDir)
	if err != nil {
		a.printf("Cannot create %s: %v\n", downloadDir, err)
		return err
	}
	path := filepath.Join(dir, filex.SafeName(fileID))

	f, err := os.Create(path)
	if err != nil {
		a.printf("Cannot create %s: %v\n", path, err)
		return err
	}
	n, err := download(ctx, nil, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		a.printf("Download failed: %v\n", err)
		return err
	}
	a.printf("Saved %d bytes to %s\n", n, path)
	return nil
}

// Route shows what the route table does with a path for the current session.
func (a *App) Route(args []string) error {
	if len(args) != 1 {
		a.printf("Usage: route <path>\n")
		return nil
	}

	d := routes.Resolve(a.routeState(), args[0])
	switch {
	case d.Redirect != "":
		a.printf("redirect %s\n", d.Redirect)
	case d.NotFound():
		a.printf("not found\n")
	default:
		a.printf("allow %s (%s)\n", d.Route.Name, d.Route.Guard)
		for _, k := range sortedKeys(d.Params) {
			a.printf("  %s = %s\n", k, d.Params[k])
		}
	}
	return nil
}

// Whoami prints the session and the guarded views it unlocks.
func (a *App) Whoami() error {
	sess := a.session.Session()
	if sess == nil || !a.isLoggedIn() {
		a.printf("Not logged in (%s)\n", a.session.State())
		return nil
	}
	a.printf("Address: %s\nAdmin: %t\nToken expires: %s\n",
		sess.Address, sess.AdminAccess, sess.ExpiresAt.Format(time.RFC3339))

	names := make([]string, 0)
	for _, r := range routes.Visible(a.routeState()) {
		names = append(names, r.Pattern)
	}
	a.printf("Views: %s\n", strings.Join(names, ", "))
	return nil
}

func (a *App) routeState() routes.State {
	st := routes.State{
		ProviderAvailable: a.session.ProviderAvailable(),
		LoginDone:         a.isLoggedIn(),
	}
	if sess := a.session.Session(); sess != nil {
		st.Address = sess.Address
		st.AdminAccess = sess.AdminAccess
	}
	return st
}

func (a *App) reportError(err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotFound):
		a.printf("Not found\n")
	case errors.Is(err, client.ErrForbidden):
		a.printf("Access denied: this token does not unlock the file\n")
	case errors.Is(err, client.ErrUnauthorized):
		a.printf("Not logged in, run 'login' first\n")
	case errors.Is(err, client.ErrUnavailable):
		a.printf("Server unavailable, try again later\n")
	case errors.As(err, &apiErr):
		a.printf("Request rejected: %s\n", apiErr.Message)
	default:
		a.printf("Error: %v\n", err)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
