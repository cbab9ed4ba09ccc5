package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aslanbek/fieldlog/internal/media"
	"github.com/aslanbek/fieldlog/internal/pipeline"
	"github.com/aslanbek/fieldlog/internal/progress"
)

// --- fakes ---

type fakeRepo struct {
	records   map[uuid.UUID]Record
	appended  [][]media.Attachment
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]Record)}
}

func (f *fakeRepo) Create(ctx context.Context, rec Record) (Record, error) {
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRepo) List(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	var list []Record
	for _, rec := range f.records {
		if rec.OwnerID == ownerID {
			list = append(list, rec)
		}
	}
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error) {
	rec, ok := f.records[recordID]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRepo) AppendAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[recordID]
	if !ok || rec.OwnerID != ownerID {
		return ErrRecordNotFound
	}
	f.appended = append(f.appended, attachments)
	rec.Attachments = append(rec.Attachments, attachments...)
	f.records[recordID] = rec
	return nil
}

func (f *fakeRepo) UpdateAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[recordID]
	if !ok || rec.OwnerID != ownerID {
		return ErrRecordNotFound
	}
	rec.Attachments = attachments
	f.records[recordID] = rec
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error) {
	rec, ok := f.records[recordID]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrRecordNotFound
	}
	delete(f.records, recordID)
	return rec, nil
}

type fakeRemover struct {
	removed []string
	failFor map[string]error
}

func (f *fakeRemover) Remove(ctx context.Context, path string) error {
	f.removed = append(f.removed, path)
	if err, ok := f.failFor[path]; ok {
		return err
	}
	return nil
}

type fakePipeline struct {
	result pipeline.Result
	err    error
	ran    bool
}

func (f *fakePipeline) Run(ctx context.Context, namespace string, batch []media.RawFile) (pipeline.Result, *progress.Ledger, error) {
	f.ran = true
	files := make([]progress.File, len(batch))
	for i, b := range batch {
		files[i] = progress.File{DisplayName: b.DisplayName, Size: b.Size}
	}
	return f.result, progress.New(files), f.err
}

func seedRecord(repo *fakeRepo, ownerID uuid.UUID, attachments ...media.Attachment) Record {
	rec := Record{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       "Morning dive",
		OccurredAt:  time.Now(),
		Attachments: attachments,
	}
	repo.records[rec.ID] = rec
	return rec
}

// --- tests ---

func TestCreateRecordRequiresTitle(t *testing.T) {
	service := NewService(newFakeRepo(), &fakePipeline{}, &fakeRemover{}, nil)

	if _, err := service.CreateRecord(context.Background(), uuid.New(), CreateInput{Title: "  "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestAttachMediaMergesSucceededIntoRecord(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	existing := media.Attachment{StoragePath: ownerID.String() + "/1-old.jpg", DisplayName: "old.jpg", Kind: media.KindImage}
	rec := seedRecord(repo, ownerID, existing)

	pipe := &fakePipeline{result: pipeline.Result{
		Succeeded: []media.Attachment{
			{StoragePath: ownerID.String() + "/2-a.jpg", DisplayName: "a.jpg", Kind: media.KindImage},
			{StoragePath: ownerID.String() + "/3-c.jpg", DisplayName: "c.jpg", Kind: media.KindImage},
		},
		Failed: []pipeline.Failure{{DisplayName: "b.mp4", Reason: "compressed size exceeds ceiling"}},
	}}
	service := NewService(repo, pipe, &fakeRemover{}, nil)

	batch := []media.RawFile{
		{DisplayName: "a.jpg", ContentType: "image/jpeg"},
		{DisplayName: "b.mp4", ContentType: "video/mp4"},
		{DisplayName: "c.jpg", ContentType: "image/jpeg"},
	}

	out, err := service.AttachMedia(context.Background(), ownerID, rec.ID, batch)
	if err != nil {
		t.Fatalf("AttachMedia returned error: %v", err)
	}

	if len(out.Result.Succeeded) != 2 || len(out.Result.Failed) != 1 {
		t.Fatalf("unexpected pipeline result: %+v", out.Result)
	}

	stored := repo.records[rec.ID]
	if len(stored.Attachments) != 3 {
		t.Fatalf("expected 3 attachments after merge, got %d", len(stored.Attachments))
	}
	if stored.Attachments[0].StoragePath != existing.StoragePath {
		t.Fatalf("pre-existing attachment displaced: %+v", stored.Attachments[0])
	}
}

func TestAttachMediaAppendsOnlyNewEntries(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	existing := media.Attachment{StoragePath: ownerID.String() + "/1-old.jpg", DisplayName: "old.jpg", Kind: media.KindImage}
	rec := seedRecord(repo, ownerID, existing)

	added := media.Attachment{StoragePath: ownerID.String() + "/2-new.jpg", DisplayName: "new.jpg", Kind: media.KindImage}
	pipe := &fakePipeline{result: pipeline.Result{Succeeded: []media.Attachment{added}}}
	service := NewService(repo, pipe, &fakeRemover{}, nil)

	if _, err := service.AttachMedia(context.Background(), ownerID, rec.ID, []media.RawFile{{DisplayName: "new.jpg"}}); err != nil {
		t.Fatalf("AttachMedia returned error: %v", err)
	}

	// The merge must ship only the batch's additions; rewriting the full
	// list would let concurrent batches clobber each other.
	if len(repo.appended) != 1 {
		t.Fatalf("expected one append call, got %d", len(repo.appended))
	}
	if len(repo.appended[0]) != 1 || repo.appended[0][0].StoragePath != added.StoragePath {
		t.Fatalf("append carried unexpected entries: %+v", repo.appended[0])
	}
}

func TestAttachMediaRejectsUnknownRecord(t *testing.T) {
	pipe := &fakePipeline{}
	service := NewService(newFakeRepo(), pipe, &fakeRemover{}, nil)

	_, err := service.AttachMedia(context.Background(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if pipe.ran {
		t.Fatalf("pipeline ran for unknown record")
	}
}

func TestAttachMediaSurfacesIdentityFailure(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	rec := seedRecord(repo, ownerID)

	pipe := &fakePipeline{err: pipeline.ErrNoIdentity}
	service := NewService(repo, pipe, &fakeRemover{}, nil)

	_, err := service.AttachMedia(context.Background(), ownerID, rec.ID, []media.RawFile{{DisplayName: "a.jpg"}})
	if !errors.Is(err, pipeline.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
	if got := repo.records[rec.ID].Attachments; len(got) != 0 {
		t.Fatalf("attachments merged despite aborted batch: %+v", got)
	}
}

func TestDeleteRecordRemovesExactlyReferencedObjects(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	ns := ownerID.String()
	rec := seedRecord(repo, ownerID,
		media.Attachment{StoragePath: ns + "/1-clip.mp4", Kind: media.KindVideo, ThumbnailURL: "https://storage.local/" + ns + "/thumbs/1-clip.mp4.jpg"},
		media.Attachment{StoragePath: ns + "/2-photo.jpg", Kind: media.KindImage},
	)

	remover := &fakeRemover{}
	service := NewService(repo, &fakePipeline{}, remover, nil)

	if err := service.DeleteRecord(context.Background(), ownerID, rec.ID); err != nil {
		t.Fatalf("DeleteRecord returned error: %v", err)
	}

	want := map[string]bool{
		ns + "/1-clip.mp4":           true,
		ns + "/thumbs/1-clip.mp4.jpg": true,
		ns + "/2-photo.jpg":          true,
	}
	if len(remover.removed) != len(want) {
		t.Fatalf("removed %v, want exactly %v", remover.removed, want)
	}
	for _, path := range remover.removed {
		if !want[path] {
			t.Fatalf("removed unreferenced object %s", path)
		}
	}
	if _, ok := repo.records[rec.ID]; ok {
		t.Fatalf("record still present after delete")
	}
}

func TestDeleteRecordProceedsPastRemovalFailures(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	ns := ownerID.String()
	rec := seedRecord(repo, ownerID,
		media.Attachment{StoragePath: ns + "/1-a.jpg", Kind: media.KindImage},
		media.Attachment{StoragePath: ns + "/2-b.jpg", Kind: media.KindImage},
	)

	remover := &fakeRemover{failFor: map[string]error{
		ns + "/2-b.jpg": errors.New("storage unavailable"),
	}}
	service := NewService(repo, &fakePipeline{}, remover, nil)

	if err := service.DeleteRecord(context.Background(), ownerID, rec.ID); err != nil {
		t.Fatalf("DeleteRecord must not escalate removal failures: %v", err)
	}

	if len(remover.removed) != 2 {
		t.Fatalf("remaining removals skipped after failure: %v", remover.removed)
	}
	if _, ok := repo.records[rec.ID]; ok {
		t.Fatalf("record kept despite delete")
	}
}

func TestRemoveAttachmentDropsListEntryAndObjects(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	ns := ownerID.String()
	keep := media.Attachment{StoragePath: ns + "/1-keep.jpg", Kind: media.KindImage}
	drop := media.Attachment{StoragePath: ns + "/2-drop.mp4", Kind: media.KindVideo, ThumbnailURL: "https://storage.local/thumb"}
	rec := seedRecord(repo, ownerID, keep, drop)

	remover := &fakeRemover{}
	service := NewService(repo, &fakePipeline{}, remover, nil)

	if err := service.RemoveAttachment(context.Background(), ownerID, rec.ID, drop.StoragePath); err != nil {
		t.Fatalf("RemoveAttachment returned error: %v", err)
	}

	stored := repo.records[rec.ID]
	if len(stored.Attachments) != 1 || stored.Attachments[0].StoragePath != keep.StoragePath {
		t.Fatalf("unexpected attachment list: %+v", stored.Attachments)
	}
	if len(remover.removed) != 2 {
		t.Fatalf("expected object and thumbnail removal, got %v", remover.removed)
	}
}

func TestRemoveAttachmentUnknownPath(t *testing.T) {
	repo := newFakeRepo()
	ownerID := uuid.New()
	rec := seedRecord(repo, ownerID)

	service := NewService(repo, &fakePipeline{}, &fakeRemover{}, nil)
	err := service.RemoveAttachment(context.Background(), ownerID, rec.ID, "nope/1-x.jpg")
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}
