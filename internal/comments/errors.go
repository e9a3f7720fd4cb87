package comments

import "errors"

var (
	// ErrCommentNotFound indicates the requested comment doesn't exist
	ErrCommentNotFound = errors.New("comment not found")

	// ErrParentNotFound indicates the referenced parent comment doesn't exist
	ErrParentNotFound = errors.New("parent comment not found")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound) || errors.Is(err, ErrParentNotFound)
}
