package records

import "errors"

var (
	// ErrRecordNotFound signals that the record does not exist or is not
	// owned by the caller.
	ErrRecordNotFound = errors.New("record not found")
	// ErrAttachmentNotFound signals that no attachment with the given
	// storage path is referenced by the record.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrTitleRequired rejects records without a title.
	ErrTitleRequired = errors.New("record title required")
)
