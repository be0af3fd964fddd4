package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidModelOutput = errors.New("model output is not valid JSON")
	ErrInvalidDraft       = errors.New("invalid course draft")
	ErrNoDraft            = errors.New("no draft staged for session")
	ErrSlugConflict       = errors.New("course slug already taken")
	ErrUnknownPurpose     = errors.New("unknown chat purpose")
	ErrRoutingFailed      = errors.New("router returned an unknown route")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("command not allowed in current lesson state")
	ErrLessonExhausted   = errors.New("lesson body has no more content")
	ErrStaleLesson       = errors.New("lesson was changed by another request")
	ErrBadRequest        = errors.New("bad request")

	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("forbidden")
)

// InvalidDraftError указывает, какая часть черновика не прошла проверку.
type InvalidDraftError struct {
	Path   string
	Reason string
}

func (e *InvalidDraftError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidDraft.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidDraft.Error(), e.Path, e.Reason)
}

func (e *InvalidDraftError) Unwrap() error { return ErrInvalidDraft }
