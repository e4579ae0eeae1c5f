package types

import (
	"errors"
	"fmt"
)

// ErrDataQuality is the sentinel matched by every *DataQualityError.
var ErrDataQuality = errors.New("data quality error")

// DataQualityError marks a single record as unusable for computation.
// The engine skips such records and keeps going.
type DataQualityError struct {
	RecordID string
	SEI      string
	Field    string
	Reason   string
}

func (e *DataQualityError) Error() string {
	ref := e.RecordID
	if e.SEI != "" {
		ref = e.SEI
	}
	if ref == "" {
		ref = "<sem identificador>"
	}
	return fmt.Sprintf("record %s: %s: %s", ref, e.Field, e.Reason)
}

// Is lets errors.Is match ErrDataQuality.
func (e *DataQualityError) Is(target error) bool {
	return target == ErrDataQuality
}
