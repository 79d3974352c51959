package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// newRetryPolicy bounds how often a contended unlock transaction is replayed.
var newRetryPolicy = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// FileService controls access to file metadata and the offers that unlock files.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewFileService constructs a FileService.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager) *FileService {
	return &FileService{db: db, repomanager: m}
}

// IsFileOwner returns nil when requester uploaded the file or is a
// super-admin, common.ErrorForbidden otherwise and common.ErrorNotFound
// when the file does not exist.
func (s *FileService) IsFileOwner(ctx context.Context, fileID string, requester auth.AuthContext) error {
	f, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if requester.SuperAdmin {
		return nil
	}
	// session addresses are lowercased at login; EqualFold also accepts
	// uploader rows that kept the EIP-55 checksum case.
	if requester.PublicAddress == "" || !strings.EqualFold(f.Uploader, requester.PublicAddress) {
		return common.ErrorForbidden
	}
	return nil
}

// ListFiles returns files matching filter sorted by title. Only
// super-admins may look at other uploaders' files.
func (s *FileService) ListFiles(ctx context.Context, filter models.FileFilter, requester auth.AuthContext) ([]*models.File, error) {
	if !requester.SuperAdmin {
		filter.Uploader = requester.PublicAddress
	}
	filter.Uploader = strings.ToLower(filter.Uploader)
	return s.repomanager.Files(s.db).List(ctx, filter)
}

// GetFile returns a file with its category, or nil when there is none.
func (s *FileService) GetFile(ctx context.Context, id string) (*models.File, error) {
	f, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// UpdateFile merges patch into the file.
func (s *FileService) UpdateFile(ctx context.Context, id string, patch map[string]any) error {
	return s.repomanager.Files(s.db).Update(ctx, id, patch)
}

// ListFilesByCategory returns one page of a category. page is 1-based.
// The count and the page are read separately and may disagree under
// concurrent writes.
func (s *FileService) ListFilesByCategory(ctx context.Context, categoryID string, page, pageSize int) (*models.FilePage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page size must be positive", common.ErrorValidation)
	}

	repo := s.repomanager.Files(s.db)
	files, err := repo.ListByCategory(ctx, categoryID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	total, err := repo.CountByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return &models.FilePage{Files: files, TotalCount: total}, nil
}

// LinkFileToOffers adds offerIDs to the file's Unlock, creating it on first
// use, and marks the file as gated. Offers already linked are kept once.
func (s *FileService) LinkFileToOffers(ctx context.Context, fileID string, offerIDs []string) (*models.Unlock, error) {
	ids := uniqueNonEmpty(offerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no offers given", common.ErrorValidation)
	}

	found, err := s.repomanager.Offers(s.db).ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, fmt.Errorf("%w: unknown offer", common.ErrorValidation)
	}

	var result *models.Unlock
	err = dbx.WithTxRetry(ctx, s.db, nil, newRetryPolicy(), func(ctx context.Context, tx dbx.DBTX) error {
		fileRepo := s.repomanager.Files(tx)
		unlockRepo := s.repomanager.Unlocks(tx)

		if _, err := fileRepo.GetByID(ctx, fileID); err != nil {
			return err
		}
		if err := unlockRepo.Ensure(ctx, fileID); err != nil {
			return err
		}
		u, err := unlockRepo.GetByFileForUpdate(ctx, fileID)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if !u.HasOffer(id) {
				u.OfferIDs = append(u.OfferIDs, id)
			}
		}
		if err := unlockRepo.SaveOffers(ctx, u); err != nil {
			return err
		}
		if err := fileRepo.SetDemo(ctx, fileID, false); err != nil {
			return err
		}

		result = u
		return nil
	}, common.ErrVersionConflict)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnlinkFileFromOffer removes offerID from the file's Unlock. The Unlock is
// saved even when the offer was not linked, and the file becomes a demo again
// once no offers remain. A file without an Unlock yields common.ErrorNotFound.
func (s *FileService) UnlinkFileFromOffer(ctx context.Context, fileID, offerID string) (*models.Unlock, error) {
	var result *models.Unlock
	err := dbx.WithTxRetry(ctx, s.db, nil, newRetryPolicy(), func(ctx context.Context, tx dbx.DBTX) error {
		unlockRepo := s.repomanager.Unlocks(tx)

		u, err := unlockRepo.GetByFileForUpdate(ctx, fileID)
		if err != nil {
			return err
		}

		kept := make([]string, 0, len(u.OfferIDs))
		for _, id := range u.OfferIDs {
			if id != offerID {
				kept = append(kept, id)
			}
		}
		u.OfferIDs = kept

		if err := unlockRepo.SaveOffers(ctx, u); err != nil {
			return err
		}
		if len(u.OfferIDs) == 0 {
			if err := s.repomanager.Files(tx).SetDemo(ctx, fileID, true); err != nil {
				return err
			}
		}

		result = u
		return nil
	}, common.ErrVersionConflict)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetFileOffers returns the file's Unlock with offers and their contracts
// populated, or nil when the file has never been linked.
func (s *FileService) GetFileOffers(ctx context.Context, fileID string) (*models.Unlock, error) {
	u, err := s.repomanager.Unlocks(s.db).GetByFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}

	offers, err := s.repomanager.Offers(s.db).ListByIDs(ctx, u.OfferIDs)
	if err != nil {
		return nil, err
	}
	u.Offers = offers
	return u, nil
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
