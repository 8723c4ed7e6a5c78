package application

import (
	"errors"

	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("email or password is wrong")
	ErrEmailNotVerified   = errors.New("please verify your email")
	ErrInvalidLink        = errors.New("verification link is invalid")
	ErrSessionInvalid     = errors.New("unauthorized")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountUnavailable = errors.New("account no longer exists")
	ErrEmptyUpdate        = errors.New("nothing to update")
	ErrNotAnImage         = errors.New("uploaded file is not an image")
)

// ErrorKind classifies lifecycle failures for the transport layer.
type ErrorKind string

const (
	KindConflict         ErrorKind = "conflict"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindNotFound         ErrorKind = "not_found"
	KindBadRequest       ErrorKind = "bad_request"
	KindUnsupportedMedia ErrorKind = "unsupported_media"
	KindInvalidArgument  ErrorKind = "invalid_argument"
	KindStorageFailure   ErrorKind = "storage_failure"
	KindInternal         ErrorKind = "internal"
)

// KindOf maps err onto an ErrorKind. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailTaken), errors.Is(err, repository.ErrDuplicateEmail):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrEmailNotVerified),
		errors.Is(err, ErrInvalidLink),
		errors.Is(err, ErrSessionInvalid),
		errors.Is(err, ErrAccountUnavailable):
		return KindUnauthorized
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyUpdate):
		return KindBadRequest
	case errors.Is(err, transcoder.ErrUnsupportedMedia):
		return KindUnsupportedMedia
	case errors.Is(err, ErrNotAnImage):
		return KindInvalidArgument
	case errors.Is(err, repository.ErrStorageFailure):
		return KindStorageFailure
	default:
		return KindInternal
	}
}
