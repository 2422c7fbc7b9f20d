package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/logging"
	sc "github.com/avilks/passvault/internal/server/config"
	"github.com/avilks/passvault/internal/server/models"
	"github.com/avilks/passvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService hands out short-lived presigned URLs so encrypted blobs
// move between the client and the object store directly; the server never
// relays file bytes.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       *VaultService
	config      *sc.Config
	logger      logging.Logger
}

func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, vault *VaultService, cfg *sc.Config, logger logging.Logger) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		vault:       vault,
		config:      cfg,
		logger:      logger.With("module", "attachment_service"),
	}
}

// GetRandomStorageKey generates a date-bucketed object key. The key carries
// no account or file-name information.
func GetRandomStorageKey() string {
	d := timeNow()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *AttachmentService) getPresignedPutURL(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *AttachmentService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// CreateAttachment records the attachment and returns a presigned PUT URL the
// client uploads the encrypted blob to. The row is written first; an upload
// that never happens leaves a dangling key, not a dangling URL.
func (s *AttachmentService) CreateAttachment(ctx context.Context, accountID, serviceID, fileName string) (*models.Attachment, string, error) {
	if fileName == "" {
		return nil, "", fmt.Errorf("%w: missing file name", common.ErrValidation)
	}

	storageKey, uploadURL, err := s.getPresignedPutURL(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("presigning upload: %w", err)
	}

	attachment := &models.Attachment{
		ServiceID:  serviceID,
		FileName:   fileName,
		StorageKey: storageKey,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.vault.ownedService(ctx, tx, accountID, serviceID); err != nil {
			return err
		}
		_, err := s.repomanager.Attachments(tx).Create(ctx, attachment)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrNotFound
		}
		return nil, "", fmt.Errorf("storing attachment: %w", err)
	}

	return attachment, uploadURL, nil
}

// GetDownloadURL presigns a GET for the attachment's object. Ownership is
// checked through the attachment's service before any URL is minted.
func (s *AttachmentService) GetDownloadURL(ctx context.Context, accountID, attachmentID string) (string, error) {
	attachment, err := s.repomanager.Attachments(s.db).GetByID(ctx, attachmentID)
	if err != nil {
		return "", err
	}

	if _, err := s.vault.ownedService(ctx, s.db, accountID, attachment.ServiceID); err != nil {
		return "", err
	}

	url, err := s.getPresignedGetURL(ctx, attachment.StorageKey)
	if err != nil {
		return "", fmt.Errorf("presigning download: %w", err)
	}
	return url, nil
}

func (s *AttachmentService) ListAttachments(ctx context.Context, accountID, serviceID string) ([]*models.Attachment, error) {
	if _, err := s.vault.ownedService(ctx, s.db, accountID, serviceID); err != nil {
		return nil, err
	}

	result, err := s.repomanager.Attachments(s.db).ListByService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return result, nil
}
