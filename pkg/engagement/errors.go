package engagement

import "errors"

var (
	// ErrArticleNotFound indicates the target article does not exist (or
	// vanished mid-transaction). Surfaced to clients as a 404.
	ErrArticleNotFound = errors.New("article not found")

	// ErrValidation indicates malformed input to the engine's own
	// parameters, e.g. an empty fingerprint or a negative day count.
	ErrValidation = errors.New("validation error")
)
