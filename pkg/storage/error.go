package storage

import "errors"

// ErrNotFound matches every NotFoundError with errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}

	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConversationNotFound builds the NotFoundError for a conversation id.
func ConversationNotFound(id string) error {
	return NotFoundError{Kind: "conversation", ID: id}
}
