package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies failures caught at the dispatcher boundary.
type Kind string

const (
	// KindInput covers missing photos and a missing first concat image.
	KindInput Kind = "input"
	// KindTransform covers image decoding, validation and transform failures.
	KindTransform Kind = "transform"
	// KindDownload covers failures fetching the photo from the chat platform.
	KindDownload Kind = "download"
	// KindDetection covers network, timeout and bad-response failures of the detector.
	KindDetection Kind = "detection"
)

var (
	// ErrNotAPhoto is returned when a photo is required but the message has none.
	ErrNotAPhoto = errors.New("message content of type photo expected")
	// ErrNoFirstImage is returned when the second concat photo arrives without a stored first one.
	ErrNoFirstImage = errors.New("no first image stored for concat")
	// ErrInvalidImage marks validation failures whose detail is safe to show to the user.
	ErrInvalidImage = errors.New("invalid image")
)

// Error is a classified handler failure. It has already been answered in the chat.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the taxonomy name used as err_code in handler logs.
func (e *Error) Code() string { return string(e.Kind) }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err, or "" when err is not a dispatch error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// detail returns the message of the innermost classified error for user replies.
func detail(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}
