package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/services"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	admin = "0x9999999999999999999999999999999999999999"
)

var errBoom = errors.New("boom")

// fakeAuth treats the token text as the session: "admin", "alice", "bob";
// "expired" fails as an expired token and anything else as invalid.
type fakeAuth struct {
	admin     bool
	adminErr  error
	challenge string
}

func (f *fakeAuth) Challenge(_ context.Context, address string) (string, error) {
	if !strings.HasPrefix(address, "0x") {
		return "", common.ErrorValidation
	}
	return f.challenge, nil
}

func (f *fakeAuth) CheckAdmin(_ context.Context, nonce, _ string) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}
	return f.admin, nil
}

func (f *fakeAuth) IssueToken(_ context.Context, nonce, signature string) (string, error) {
	if signature == "bad" {
		return "", common.ErrInvalidSignature
	}
	return "jwt-for-" + nonce, nil
}

func (f *fakeAuth) Authenticate(token string) (auth.AuthContext, error) {
	switch token {
	case "admin":
		return auth.AuthContext{PublicAddress: admin, SuperAdmin: true}, nil
	case "alice":
		return auth.AuthContext{PublicAddress: alice}, nil
	case "bob":
		return auth.AuthContext{PublicAddress: bob}, nil
	case "expired":
		return auth.AuthContext{}, common.ErrTokenExpired
	default:
		return auth.AuthContext{}, common.ErrInvalidToken
	}
}

// fakeFiles owns a single file "f1" uploaded by alice.
type fakeFiles struct {
	lastFilter    models.FileFilter
	lastRequester auth.AuthContext
	lastPatch     map[string]any
	lastPage      [2]int
	linked        []string
	unlinked      string
	listErr       error
	page          *models.FilePage
	unlock        *models.Unlock
}

func (f *fakeFiles) IsFileOwner(_ context.Context, fileID string, requester auth.AuthContext) error {
	if fileID != "f1" {
		return common.ErrorNotFound
	}
	if requester.SuperAdmin || requester.PublicAddress == alice {
		return nil
	}
	return common.ErrorForbidden
}

func (f *fakeFiles) ListFiles(_ context.Context, filter models.FileFilter, requester auth.AuthContext) ([]*models.File, error) {
	f.lastFilter, f.lastRequester = filter, requester
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*models.File{{ID: "f1", Title: "a", Uploader: alice}}, nil
}

func (f *fakeFiles) GetFile(_ context.Context, id string) (*models.File, error) {
	if id != "f1" {
		return nil, nil
	}
	return &models.File{ID: "f1", Title: "a", Uploader: alice, Key: "secret"}, nil
}

func (f *fakeFiles) UpdateFile(_ context.Context, id string, patch map[string]any) error {
	f.lastPatch = patch
	if _, ok := patch["bogus"]; ok {
		return common.ErrorValidation
	}
	return nil
}

func (f *fakeFiles) ListFilesByCategory(_ context.Context, categoryID string, page, pageSize int) (*models.FilePage, error) {
	f.lastPage = [2]int{page, pageSize}
	if f.page != nil {
		return f.page, nil
	}
	return &models.FilePage{}, nil
}

func (f *fakeFiles) LinkFileToOffers(_ context.Context, fileID string, offerIDs []string) (*models.Unlock, error) {
	if len(offerIDs) == 0 {
		return nil, common.ErrorValidation
	}
	f.linked = offerIDs
	return &models.Unlock{ID: "u1", FileID: fileID, OfferIDs: offerIDs}, nil
}

func (f *fakeFiles) UnlinkFileFromOffer(_ context.Context, fileID, offerID string) (*models.Unlock, error) {
	f.unlinked = offerID
	if f.unlock == nil {
		return nil, common.ErrorNotFound
	}
	return f.unlock, nil
}

func (f *fakeFiles) GetFileOffers(_ context.Context, fileID string) (*models.Unlock, error) {
	return f.unlock, nil
}

type fakeResolver struct {
	files []*models.File
	err   error
}

func (f *fakeResolver) FilesForToken(context.Context, string) ([]*models.File, error) {
	return f.files, f.err
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) Get(_ context.Context, address string) (*models.User, error) {
	if u, ok := f.users[address]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) Register(_ context.Context, address, adminNFT string) (*models.User, error) {
	if _, ok := f.users[address]; ok {
		return nil, common.ErrAlreadyExists
	}
	u := &models.User{PublicAddress: address, AdminNFT: adminNFT}
	f.users[address] = u
	return u, nil
}

type fakeMedia struct {
	lastToken     string
	lastRequester auth.AuthContext
}

func (f *fakeMedia) StreamLink(_ context.Context, fileID, tokenID string, requester auth.AuthContext) (*services.StreamLink, error) {
	f.lastToken, f.lastRequester = tokenID, requester
	if fileID != "f1" {
		return nil, common.ErrorNotFound
	}
	if tokenID == "" && !requester.SuperAdmin {
		return nil, common.ErrorForbidden
	}
	return &services.StreamLink{URL: "https://s3.local/media/k?sig", ExpiresIn: 15 * time.Minute}, nil
}

type fixture struct {
	srv      *HTTPServer
	files    *fakeFiles
	resolver *fakeResolver
	auth     *fakeAuth
	users    *fakeUsers
	media    *fakeMedia
}

func newFixture() *fixture {
	f := &fixture{
		files:    &fakeFiles{},
		resolver: &fakeResolver{},
		auth:     &fakeAuth{challenge: `{"primaryType":"Challenge"}`},
		users:    &fakeUsers{users: map[string]*models.User{}},
		media:    &fakeMedia{},
	}
	f.srv = NewHTTPServer("127.0.0.1:0", logging.Nop(), Services{
		Files:    f.files,
		Resolver: f.resolver,
		Auth:     f.auth,
		Users:    f.users,
		Media:    f.media,
	})
	return f
}
