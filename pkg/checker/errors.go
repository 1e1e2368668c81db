package checker

import "errors"

// ErrUnsuppressedReports is returned by callers that treat an unmatched
// report as a failure, e.g. to exit non-zero.
var ErrUnsuppressedReports = errors.New("unsuppressed reports")
