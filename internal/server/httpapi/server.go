// Package httpapi exposes the server services over a JSON REST API routed
// with chi. Handlers translate requests into service calls and map service
// errors to HTTP status codes in one place.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// FileController is the file access surface used by the handlers.
type FileController interface {
	IsFileOwner(ctx context.Context, fileID string, requester auth.AuthContext) error
	ListFiles(ctx context.Context, filter models.FileFilter, requester auth.AuthContext) ([]*models.File, error)
	GetFile(ctx context.Context, id string) (*models.File, error)
	UpdateFile(ctx context.Context, id string, patch map[string]any) error
	ListFilesByCategory(ctx context.Context, categoryID string, page, pageSize int) (*models.FilePage, error)
	LinkFileToOffers(ctx context.Context, fileID string, offerIDs []string) (*models.Unlock, error)
	UnlinkFileFromOffer(ctx context.Context, fileID, offerID string) (*models.Unlock, error)
	GetFileOffers(ctx context.Context, fileID string) (*models.Unlock, error)
}

// TokenResolver maps a minted token to the files it unlocks.
type TokenResolver interface {
	FilesForToken(ctx context.Context, tokenID string) ([]*models.File, error)
}

// Authenticator runs the wallet challenge login and validates sessions.
type Authenticator interface {
	Challenge(ctx context.Context, address string) (string, error)
	CheckAdmin(ctx context.Context, nonce, signature string) (bool, error)
	IssueToken(ctx context.Context, nonce, signature string) (string, error)
	Authenticate(token string) (auth.AuthContext, error)
}

// UserDirectory looks up and registers wallet holders.
type UserDirectory interface {
	Get(ctx context.Context, address string) (*models.User, error)
	Register(ctx context.Context, address, adminNFT string) (*models.User, error)
}

// MediaLinker issues presigned media links.
type MediaLinker interface {
	StreamLink(ctx context.Context, fileID, tokenID string, requester auth.AuthContext) (*services.StreamLink, error)
}

// Services bundles the dependencies of the API. Health may be nil.
type Services struct {
	Files    FileController
	Resolver TokenResolver
	Auth     Authenticator
	Users    UserDirectory
	Media    MediaLinker
	Health   func(ctx context.Context) error
}

type HTTPServer struct {
	address string
	svc     Services
	logger  logging.Logger
	metrics *metrics
}

func NewHTTPServer(a string, l logging.Logger, svc Services) *HTTPServer {
	return &HTTPServer{
		address: a,
		svc:     svc,
		logger:  l.With("module", "http_server"),
		metrics: newMetrics(),
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
