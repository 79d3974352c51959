// Package routes is the client's route table. It decides, from the current
// session state alone, whether a path may be shown or where to send the
// user instead.
package routes

import "strings"

// Guard is a precondition a route needs.
type Guard int

const (
	Public Guard = iota
	NeedLogin
	NeedAdmin
	NeedFactory
	NeedMinter
)

func (g Guard) String() string {
	switch g {
	case Public:
		return "public"
	case NeedLogin:
		return "login"
	case NeedAdmin:
		return "admin"
	case NeedFactory:
		return "factory"
	case NeedMinter:
		return "minter"
	default:
		return "unknown"
	}
}

// Route is one entry of the table. Params are written as :name. A route
// that is not Exact also matches longer paths.
type Route struct {
	Name    string
	Pattern string
	Exact   bool
	Guard   Guard
}

// State is what the guards look at.
type State struct {
	Address           string
	ProviderAvailable bool
	LoginDone         bool
	AdminAccess       bool
	FactoryAvailable  bool
	MinterAvailable   bool
}

func (s State) allows(g Guard) bool {
	switch g {
	case Public:
		return true
	case NeedLogin:
		return s.LoginDone
	case NeedAdmin:
		return s.LoginDone && s.AdminAccess
	case NeedFactory:
		return s.LoginDone && s.FactoryAvailable
	case NeedMinter:
		return s.LoginDone && s.MinterAvailable
	}
	return false
}

const (
	PathAll   = "/all"
	PathAdmin = "/admin"
)

// Table is searched in order; the first allowed match wins.
var Table = []Route{
	{Name: "creator-mode", Pattern: "/factory", Exact: true, Guard: NeedFactory},
	{Name: "consumer-mode", Pattern: "/minter", Exact: true, Guard: NeedMinter},
	{Name: "metadata-form", Pattern: "/metadata/:contract/:product", Exact: true, Guard: NeedLogin},
	{Name: "batch-metadata", Pattern: "/batch-metadata/:contract/:product", Guard: NeedLogin},
	{Name: "marketplace", Pattern: "/on-sale", Guard: NeedLogin},
	{Name: "token", Pattern: "/token/:contract/:identifier", Guard: NeedLogin},
	{Name: "rair-product", Pattern: "/rair/:contract/:product", Guard: NeedLogin},
	{Name: "deploy", Pattern: "/creator/deploy", Guard: NeedLogin},
	{Name: "contracts", Pattern: "/creator/contracts", Guard: NeedLogin},
	{Name: "create-collection", Pattern: "/creator/contract/:address/createCollection", Guard: NeedLogin},
	{Name: "list-collections", Pattern: "/creator/contract/:address/listCollections", Guard: NeedLogin},
	{Name: "all", Pattern: PathAll, Guard: Public},
	{Name: "external-link", Pattern: "/:adminToken/:contract/:product/:offer/:token", Guard: Public},
	{Name: "my-contracts", Pattern: "/new-factory", Guard: NeedLogin},
	{Name: "my-nft", Pattern: "/my-nft", Exact: true, Guard: NeedLogin},
	{Name: "watch", Pattern: "/watch/:videoId/:mainManifest", Guard: Public},
	{Name: "token-link", Pattern: "/tokens/:contract/:product/:tokenId", Guard: Public},
	{Name: "file-upload", Pattern: PathAdmin, Guard: NeedAdmin},
	{Name: "home", Pattern: "/", Exact: true, Guard: Public},
	{Name: "provider-setup", Pattern: PathAdmin, Guard: Public},
}

// Decision is the outcome of Resolve. Exactly one of Route and Redirect is
// set, or neither when nothing can be shown.
type Decision struct {
	Route    *Route
	Params   map[string]string
	Redirect string
}

func (d Decision) Allowed() bool { return d.Route != nil }

func (d Decision) NotFound() bool { return d.Route == nil && d.Redirect == "" }

// Resolve applies the table to path. Without an address or a wallet every
// path except /admin is sent to /admin to set one up; before login, paths
// that only guarded routes match are sent to /all.
func Resolve(s State, path string) Decision {
	path = clean(path)

	if s.Address == "" && !s.ProviderAvailable && path != PathAdmin {
		return Decision{Redirect: PathAdmin}
	}

	blockedByLogin := false
	for i := range Table {
		r := &Table[i]
		params, ok := r.match(path)
		if !ok {
			continue
		}
		if s.allows(r.Guard) {
			return Decision{Route: r, Params: params}
		}
		if !s.LoginDone {
			blockedByLogin = true
		}
	}

	if blockedByLogin {
		return Decision{Redirect: PathAll}
	}
	return Decision{}
}

// Visible lists the guarded routes s currently unlocks, in table order.
func Visible(s State) []Route {
	var out []Route
	for _, r := range Table {
		if r.Guard != Public && s.allows(r.Guard) {
			out = append(out, r)
		}
	}
	return out
}

func (r *Route) match(path string) (map[string]string, bool) {
	want := segments(r.Pattern)
	got := segments(path)
	if len(got) < len(want) || (r.Exact && len(got) != len(want)) {
		return nil, false
	}

	var params map[string]string
	for i, w := range want {
		if name, ok := strings.CutPrefix(w, ":"); ok {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = got[i]
			continue
		}
		if w != got[i] {
			return nil, false
		}
	}
	return params, true
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
