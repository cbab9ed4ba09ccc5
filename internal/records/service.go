package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aslanbek/fieldlog/internal/media"
	"github.com/aslanbek/fieldlog/internal/objectstore"
	"github.com/aslanbek/fieldlog/internal/pipeline"
	"github.com/aslanbek/fieldlog/internal/progress"
)

// recordStore abstracts the persistence layer.
type recordStore interface {
	Create(ctx context.Context, rec Record) (Record, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Record, error)
	Get(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error)
	AppendAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error
	UpdateAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error
	Delete(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error)
}

// objectRemover deletes stored objects during lifecycle cascades.
type objectRemover interface {
	Remove(ctx context.Context, path string) error
}

// attachmentPipeline runs a batch of raw files through the media pipeline.
type attachmentPipeline interface {
	Run(ctx context.Context, namespace string, batch []media.RawFile) (pipeline.Result, *progress.Ledger, error)
}

// Service manages activity records and the lifecycle coupling between a
// record and its stored attachments.
type Service struct {
	repo    recordStore
	pipe    attachmentPipeline
	objects objectRemover
	logger  *zap.Logger
}

// NewService constructs a records service.
func NewService(repo recordStore, pipe attachmentPipeline, objects objectRemover, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pipe: pipe, objects: objects, logger: logger}
}

// CreateRecord creates a new activity record for the owner.
func (s *Service) CreateRecord(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Record, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Record{}, ErrTitleRequired
	}

	rec := Record{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        title,
		Notes:        strings.TrimSpace(input.Notes),
		ActivityType: strings.TrimSpace(input.ActivityType),
		OccurredAt:   input.OccurredAt,
		Attachments:  []media.Attachment{},
	}
	return s.repo.Create(ctx, rec)
}

// ListRecords returns the owner's records.
func (s *Service) ListRecords(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	return s.repo.List(ctx, ownerID)
}

// GetRecord returns a single record ensuring ownership.
func (s *Service) GetRecord(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error) {
	return s.repo.Get(ctx, ownerID, recordID)
}

// AttachResult is the outcome of one attach batch: the pipeline resolution
// plus the final ledger snapshot for presentation.
type AttachResult struct {
	Result   pipeline.Result
	Progress []progress.Entry
}

// AttachMedia runs the batch through the pipeline under the owner's identity
// namespace and appends the successful uploads to the record's attachment
// list. Failed files are surfaced in the result for the caller to decide on;
// successful siblings are never rolled back because of them. The merge is an
// atomic append so concurrent batches on one record cannot drop each other's
// entries.
func (s *Service) AttachMedia(ctx context.Context, ownerID, recordID uuid.UUID, batch []media.RawFile) (AttachResult, error) {
	if _, err := s.repo.Get(ctx, ownerID, recordID); err != nil {
		return AttachResult{}, err
	}

	result, ledger, err := s.pipe.Run(ctx, ownerID.String(), batch)
	if err != nil {
		return AttachResult{Result: result, Progress: ledger.Snapshot()}, err
	}

	if len(result.Succeeded) > 0 {
		if err := s.repo.AppendAttachments(ctx, ownerID, recordID, result.Succeeded); err != nil {
			return AttachResult{Result: result, Progress: ledger.Snapshot()},
				fmt.Errorf("merge attachments: %w", err)
		}
	}

	return AttachResult{Result: result, Progress: ledger.Snapshot()}, nil
}

// RemoveAttachment deletes a single attachment's stored objects and drops it
// from the record's list.
func (s *Service) RemoveAttachment(ctx context.Context, ownerID, recordID uuid.UUID, storagePath string) error {
	rec, err := s.repo.Get(ctx, ownerID, recordID)
	if err != nil {
		return err
	}

	remaining := make([]media.Attachment, 0, len(rec.Attachments))
	var target *media.Attachment
	for i := range rec.Attachments {
		if rec.Attachments[i].StoragePath == storagePath {
			target = &rec.Attachments[i]
			continue
		}
		remaining = append(remaining, rec.Attachments[i])
	}
	if target == nil {
		return ErrAttachmentNotFound
	}

	s.removeStoredObjects(ctx, *target)

	return s.repo.UpdateAttachments(ctx, ownerID, recordID, remaining)
}

// DeleteRecord removes every stored object referenced by the record's
// attachment list and then deletes the record itself. Per-object removal
// failures are logged, not escalated: the record is removed regardless,
// trading a possible storage leak for guaranteed absence of orphaned records.
func (s *Service) DeleteRecord(ctx context.Context, ownerID, recordID uuid.UUID) error {
	rec, err := s.repo.Get(ctx, ownerID, recordID)
	if err != nil {
		return err
	}

	for _, att := range rec.Attachments {
		s.removeStoredObjects(ctx, att)
	}

	if _, err := s.repo.Delete(ctx, ownerID, recordID); err != nil {
		return err
	}
	return nil
}

func (s *Service) removeStoredObjects(ctx context.Context, att media.Attachment) {
	if err := s.objects.Remove(ctx, att.StoragePath); err != nil {
		s.logger.Warn("attachment object removal failed",
			zap.String("path", att.StoragePath),
			zap.Error(err),
		)
	}
	if att.ThumbnailURL != "" {
		thumbPath := objectstore.ThumbnailPath(att.StoragePath)
		if err := s.objects.Remove(ctx, thumbPath); err != nil {
			s.logger.Warn("thumbnail object removal failed",
				zap.String("path", thumbPath),
				zap.Error(err),
			)
		}
	}
}
