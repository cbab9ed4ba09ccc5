package compress

import (
	"errors"
	"fmt"
)

// ErrEmptyInput signals that the raw file carried no payload.
var ErrEmptyInput = errors.New("empty input payload")

// CeilingError reports that a processed file still exceeds the configured
// size ceiling after compression. Fatal to that file only.
type CeilingError struct {
	Attempted int64
	Ceiling   int64
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("compressed size %d exceeds ceiling %d", e.Attempted, e.Ceiling)
}

// IsCeiling reports whether err is a ceiling violation.
func IsCeiling(err error) bool {
	var ce *CeilingError
	return errors.As(err, &ce)
}
