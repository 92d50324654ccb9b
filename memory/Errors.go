package memory

import "errors"

// MemoryError implements errors unique to a Memory. Op names the
// operation that failed.
type MemoryError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *MemoryError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *MemoryError) Unwrap() error {
	return e.Err
}

var errNaN = errors.New("batch contains NaN")

var errRowMismatch = errors.New("batch arrays have differing row counts")

var errEpisodeNotFound = errors.New("no experience stored for episode")

var errUnknownMetric = errors.New("metric not registered")

// IsInvariantViolation returns whether or not an error reports that a
// batch extracted from a Memory broke one of the batch invariants:
// every array must share the same number of rows and no array may
// contain NaN. Such an error means that the experience stored in the
// Memory is corrupt and must not be learned from.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, errNaN) || errors.Is(err, errRowMismatch)
}

// IsEpisodeNotFound returns whether or not an error reports that a
// Memory holds no experience for a requested episode.
func IsEpisodeNotFound(err error) bool {
	return errors.Is(err, errEpisodeNotFound)
}

// IsUnknownMetric returns whether or not an error reports that a
// metric which was never registered was recorded.
func IsUnknownMetric(err error) bool {
	return errors.Is(err, errUnknownMetric)
}
