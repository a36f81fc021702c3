package models

import "errors"

// Sentinel errors shared by the engine components. Callers match with
// errors.Is. Silent no-ops (status regression, unchanged edit, duplicate
// inbound event) return nil instead of an error.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUnknownChannel        = errors.New("unknown channel")
	ErrNotDirectConversation = errors.New("not a direct conversation")
	ErrEmptyMessage          = errors.New("empty message")
	ErrNotFound              = errors.New("message not found")
	ErrForbidden             = errors.New("forbidden")
)
