// internal/app/features/importcsv/csvutil/limits.go
package csvutil

import "errors"

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 5000
)

// ErrTooManyRows is returned when a file exceeds the row limit.
var ErrTooManyRows = errors.New("csv exceeds the maximum number of rows")
