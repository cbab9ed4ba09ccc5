package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aslanbek/fieldlog/internal/media"
	"github.com/aslanbek/fieldlog/internal/objectstore"
	"github.com/aslanbek/fieldlog/internal/progress"
)

// Options tunes orchestrator behavior.
type Options struct {
	// Workers bounds how many files are processed at once. Defaults to 1:
	// compression is memory and CPU heavy, so batches are serialized unless
	// the operator opts in to more.
	Workers int
	// OnUpdate, when set, receives a ledger snapshot after every accepted
	// progress update.
	OnUpdate func([]progress.Entry)
	Logger   *zap.Logger
}

// Orchestrator runs batches of raw files through the attachment pipeline.
type Orchestrator struct {
	compressor Compressor
	thumbs     Thumbnailer
	store      ObjectStore
	workers    int
	onUpdate   func([]progress.Entry)
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// New constructs an Orchestrator.
func New(compressor Compressor, thumbs Thumbnailer, store ObjectStore, opts Options) *Orchestrator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		compressor: compressor,
		thumbs:     thumbs,
		store:      store,
		workers:    workers,
		onUpdate:   opts.OnUpdate,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// outcome is the terminal classification of one file.
type outcome struct {
	attachment *media.Attachment
	failure    *Failure
	cancelled  bool
}

// Run processes the batch and returns its resolution together with the
// ledger for the caller's presentation needs. The returned error is non-nil
// only when the batch could not start at all; per-file errors land in the
// result's Failed set, never here.
func (o *Orchestrator) Run(ctx context.Context, namespace string, batch []media.RawFile) (Result, *progress.Ledger, error) {
	files := make([]progress.File, len(batch))
	for i, f := range batch {
		files[i] = progress.File{DisplayName: f.DisplayName, Size: f.Size}
	}
	ledger := progress.New(files)
	if o.onUpdate != nil {
		ledger.Observe(o.onUpdate)
	}

	if namespace == "" {
		return Result{}, ledger, ErrNoIdentity
	}

	outcomes := make([]outcome, len(batch))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				outcomes[i] = o.processFile(ctx, namespace, i, batch[i], ledger)
			}
		}()
	}

	for i := range batch {
		indices <- i
	}
	close(indices)
	wg.Wait()

	result := Result{}
	for i, out := range outcomes {
		switch {
		case out.attachment != nil:
			result.Succeeded = append(result.Succeeded, *out.attachment)
		case out.failure != nil:
			result.Failed = append(result.Failed, *out.failure)
		case out.cancelled:
			result.Cancelled = append(result.Cancelled, batch[i].DisplayName)
		}
	}
	return result, ledger, nil
}

// processFile walks one file through the stage machine. Cancellation is
// cooperative: it is honored before the file starts, never mid-stage.
func (o *Orchestrator) processFile(ctx context.Context, namespace string, index int, file media.RawFile, ledger *progress.Ledger) outcome {
	log := o.logger.With(zap.String("file", file.DisplayName), zap.Int("index", index))

	if ctx.Err() != nil {
		ledger.MarkCancelled(index)
		return outcome{cancelled: true}
	}

	ledger.Transition(index, progress.StageCompressing, 0)

	processed, err := o.compressor.Compress(ctx, file)
	if err != nil {
		log.Warn("compression failed", zap.Error(err))
		ledger.MarkError(index, err.Error())
		return outcome{failure: &Failure{DisplayName: file.DisplayName, Reason: err.Error()}}
	}
	ledger.SetCompressedSize(index, processed.Size)
	ledger.SetPercent(index, 50)

	var thumb *media.ProcessedFile
	if file.Kind() == media.KindVideo && o.thumbs != nil {
		derived, err := o.thumbs.Derive(ctx, processed)
		if err != nil {
			// A missing preview degrades the attachment; it never fails it.
			log.Warn("thumbnail derivation failed", zap.Error(err))
		} else {
			thumb = &derived
		}
	}

	ledger.Transition(index, progress.StageUploading, 50)

	mainPath := objectstore.ObjectPath(namespace, file.DisplayName, o.nowFunc())
	if err := o.store.Put(ctx, mainPath, processed.Payload, processed.ContentType); err != nil {
		log.Warn("upload failed", zap.Error(err))
		ledger.MarkError(index, err.Error())
		return outcome{failure: &Failure{DisplayName: file.DisplayName, Reason: err.Error()}}
	}
	ledger.SetPercent(index, 90)

	url, err := o.store.URL(ctx, mainPath)
	if err != nil {
		log.Warn("url resolution failed", zap.Error(err))
		ledger.MarkError(index, err.Error())
		return outcome{failure: &Failure{DisplayName: file.DisplayName, Reason: err.Error()}}
	}

	thumbnailURL := ""
	if thumb != nil {
		thumbPath := objectstore.ThumbnailPath(mainPath)
		if err := o.store.Put(ctx, thumbPath, thumb.Payload, thumb.ContentType); err != nil {
			log.Warn("thumbnail upload failed", zap.Error(err))
		} else if u, err := o.store.URL(ctx, thumbPath); err != nil {
			log.Warn("thumbnail url resolution failed", zap.Error(err))
		} else {
			thumbnailURL = u
		}
	}

	ledger.MarkCompleted(index, processed.Size)
	log.Info("attachment stored",
		zap.String("path", mainPath),
		zap.Int64("original_size", file.Size),
		zap.Int64("compressed_size", processed.Size),
	)

	return outcome{attachment: &media.Attachment{
		StoragePath:    mainPath,
		DisplayName:    file.DisplayName,
		Kind:           file.Kind(),
		URL:            url,
		ThumbnailURL:   thumbnailURL,
		OriginalSize:   file.Size,
		CompressedSize: processed.Size,
	}}
}
