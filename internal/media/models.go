package media

// RawFile is an ephemeral upload as received from the client. It is owned by
// the caller until handed to the pipeline and is never persisted.
type RawFile struct {
	Payload     []byte
	ContentType string
	DisplayName string
	Size        int64
}

// Kind returns the attachment kind derived from the declared content type.
func (f RawFile) Kind() Kind {
	return KindFromContentType(f.ContentType)
}

// ProcessedFile is the output of the compression stage. It is consumed
// immediately by the upload stage and not retained afterwards.
type ProcessedFile struct {
	Payload     []byte
	ContentType string
	Size        int64
}

// Attachment is the durable result of a successful upload. Immutable after
// creation except for deletion.
type Attachment struct {
	StoragePath    string `json:"id"`
	DisplayName    string `json:"name"`
	Kind           Kind   `json:"type"`
	URL            string `json:"url"`
	ThumbnailURL   string `json:"thumbnailUrl,omitempty"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize"`
}
