package service

import (
	"context"
	"time"

	"gearbox_backend/internal/adapters/storage"
	"gearbox_backend/internal/requests/repository"
	"gearbox_backend/internal/requests/transport"
	"gearbox_backend/platform/apperr"

	"github.com/google/uuid"
)

// AttachmentService handles presigned uploads/downloads for request
// attachments. Storage is an optional collaborator: when MinIO is not
// configured the module simply does not register attachment routes.
type AttachmentService struct {
	repo    *repository.Repository
	storage storage.StorageService
	bucket  string
}

// NewAttachmentService creates the attachment service.
func NewAttachmentService(repo *repository.Repository, st storage.StorageService, bucket string) *AttachmentService {
	return &AttachmentService{repo: repo, storage: st, bucket: bucket}
}

// PresignUpload validates the file, reserves an attachment record and returns
// a presigned PUT URL the client uploads to directly.
func (s *AttachmentService) PresignUpload(ctx context.Context, requestID, uploaderID uuid.UUID, req transport.PresignAttachmentRequest) (*transport.PresignAttachmentResponse, error) {
	sr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.ValidateContentType(req.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(req.SizeBytes); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	presigned, err := s.storage.GenerateUploadURL(ctx, s.bucket, sr.ID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, err
	}

	attachment := repository.Attachment{
		ID:          uuid.New(),
		RequestID:   sr.ID,
		ObjectKey:   presigned.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  uploaderID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateAttachment(ctx, &attachment); err != nil {
		return nil, err
	}

	return &transport.PresignAttachmentResponse{
		Attachment: toAttachmentResponse(&attachment),
		UploadURL:  presigned.URL,
		ExpiresIn:  int64(time.Until(presigned.ExpiresAt).Seconds()),
	}, nil
}

// DownloadURL returns a presigned GET URL for an existing attachment.
func (s *AttachmentService) DownloadURL(ctx context.Context, requestID, attachmentID uuid.UUID) (*transport.AttachmentDownloadResponse, error) {
	attachment, err := s.repo.GetAttachment(ctx, requestID, attachmentID)
	if err != nil {
		return nil, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.bucket, attachment.ObjectKey)
	if err != nil {
		return nil, err
	}

	return &transport.AttachmentDownloadResponse{
		DownloadURL: presigned.URL,
		ExpiresIn:   int64(time.Until(presigned.ExpiresAt).Seconds()),
	}, nil
}

// List returns the attachments recorded for a request.
func (s *AttachmentService) List(ctx context.Context, requestID uuid.UUID) ([]transport.AttachmentResponse, error) {
	if _, err := s.repo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}

	attachments, err := s.repo.ListAttachments(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items := make([]transport.AttachmentResponse, len(attachments))
	for i := range attachments {
		items[i] = toAttachmentResponse(&attachments[i])
	}
	return items, nil
}

func toAttachmentResponse(a *repository.Attachment) transport.AttachmentResponse {
	return transport.AttachmentResponse{
		ID:          a.ID,
		RequestID:   a.RequestID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}
