package schedule

import "errors"

var (
	// ErrStructure is returned when the published table is missing or has
	// the wrong shape.
	ErrStructure = errors.New("unexpected schedule structure")
	// ErrFormat is returned when a day label is not a DD.MM.YYYY date.
	ErrFormat = errors.New("invalid schedule format")
)
