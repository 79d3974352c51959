package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/auth"
	sc "github.com/afocalor/rair-dapp/internal/server/config"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// StreamLink is a short-lived URL to a file's media object.
type StreamLink struct {
	URL       string
	ExpiresIn time.Duration
}

// MediaService hands out presigned links to gated media. It never moves
// bytes itself.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    *Resolver
	config      *sc.Config
}

func NewMediaService(db *sql.DB, m repomanager.RepositoryManager, resolver *Resolver, config *sc.Config) *MediaService {
	return &MediaService{
		db:          db,
		repomanager: m,
		resolver:    resolver,
		config:      config,
	}
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// StreamLink returns a presigned GET link for the file's media when the
// requester may watch it: the file is a demo, the requester owns it or is a
// super-admin, or tokenID names a token the requester owns that unlocks it.
func (s *MediaService) StreamLink(ctx context.Context, fileID, tokenID string, requester auth.AuthContext) (*StreamLink, error) {
	fileRepo := s.repomanager.Files(s.db)

	f, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed := f.Demo || requester.SuperAdmin ||
		(requester.PublicAddress != "" && strings.EqualFold(f.Uploader, requester.PublicAddress))
	if !allowed && tokenID != "" {
		allowed, err = s.holdsUnlockingToken(ctx, tokenID, fileID, requester)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, common.ErrorForbidden
	}

	key, err := fileRepo.GetKey(ctx, fileID)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	validity := s.config.StreamLinkValidityDuration

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, err
	}

	return &StreamLink{URL: req.URL, ExpiresIn: validity}, nil
}

func (s *MediaService) holdsUnlockingToken(ctx context.Context, tokenID, fileID string, requester auth.AuthContext) (bool, error) {
	if requester.PublicAddress == "" {
		return false, nil
	}
	token, err := s.repomanager.Tokens(s.db).GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if !strings.EqualFold(token.Owner, requester.PublicAddress) {
		return false, nil
	}
	return s.resolver.Unlocks(ctx, tokenID, fileID)
}
