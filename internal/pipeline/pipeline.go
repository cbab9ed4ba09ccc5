// Package pipeline drives the media attachment pipeline: each submitted file
// moves through compression, optional thumbnail derivation, and upload while
// a progress ledger tracks its stage. Failures are isolated per file; one
// bad file never aborts its siblings.
package pipeline

import (
	"context"
	"errors"

	"github.com/aslanbek/fieldlog/internal/media"
)

// ErrNoIdentity aborts a batch before any per-file work when the identity
// namespace for storage paths cannot be established.
var ErrNoIdentity = errors.New("identity namespace not established")

// Compressor bounds a raw file's size according to the policy for its kind.
type Compressor interface {
	Compress(ctx context.Context, file media.RawFile) (media.ProcessedFile, error)
}

// Thumbnailer derives a still-frame preview from a processed video.
type Thumbnailer interface {
	Derive(ctx context.Context, video media.ProcessedFile) (media.ProcessedFile, error)
}

// ObjectStore is the storage surface the upload stage writes through.
type ObjectStore interface {
	Put(ctx context.Context, path string, payload []byte, contentType string) error
	URL(ctx context.Context, path string) (string, error)
}

// Failure describes one file that reached the error terminal stage.
type Failure struct {
	DisplayName string `json:"name"`
	Reason      string `json:"reason"`
}

// Result is the resolution of one batch. Every submitted file lands in
// exactly one of the three sets.
type Result struct {
	Succeeded []media.Attachment `json:"succeeded"`
	Failed    []Failure          `json:"failed"`
	Cancelled []string           `json:"cancelled"`
}
