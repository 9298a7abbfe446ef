package apperr

import (
	"errors"
	"fmt"
)

type Kind int8

const (
	KindNotFound Kind = iota + 1
	KindEmptyAsset
	KindInvalidFormat
	KindIndexOutOfRange
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindEmptyAsset:
		return "empty asset"
	case KindInvalidFormat:
		return "invalid format"
	case KindIndexOutOfRange:
		return "index out of range"
	case KindUpload:
		return "upload failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyAsset      = errors.New("empty asset")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUpload          = errors.New("upload failed")
)

var sentinels = map[Kind]error{
	KindNotFound:        ErrNotFound,
	KindEmptyAsset:      ErrEmptyAsset,
	KindInvalidFormat:   ErrInvalidFormat,
	KindIndexOutOfRange: ErrIndexOutOfRange,
	KindUpload:          ErrUpload,
}

// Error is a run-fatal failure. Subject names the asset, file or setting
// involved; Hint is shown to the user next to the message.
type Error struct {
	Kind    Kind
	Subject string
	Msg     string
	Hint    string
	// Status is the transport status code, set for KindUpload only.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Kind == KindUpload && e.Status != 0:
		msg = fmt.Sprintf("%s: got status %d while uploading %s", msg, e.Status, e.Subject)
	case e.Subject != "":
		msg = fmt.Sprintf("%s: %s", e.Subject, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func NotFound(subject, hint string) *Error {
	return &Error{Kind: KindNotFound, Subject: subject, Msg: "does not exist", Hint: hint}
}

func EmptyAsset(subject, hint string) *Error {
	return &Error{Kind: KindEmptyAsset, Subject: subject, Msg: "is empty", Hint: hint}
}

func InvalidFormat(subject, msg, hint string, err error) *Error {
	return &Error{Kind: KindInvalidFormat, Subject: subject, Msg: msg, Hint: hint, Err: err}
}

func IndexOutOfRange(subject string, position, count int) *Error {
	return &Error{
		Kind:    KindIndexOutOfRange,
		Subject: subject,
		Msg:     fmt.Sprintf("recorded position %d is outside a listing of %d entries", position, count),
		Hint:    "Make sure the asset directory is not modified while the run is in progress.",
	}
}

func Upload(path string, status int, err error) *Error {
	return &Error{
		Kind:    KindUpload,
		Subject: path,
		Msg:     "upload failed",
		Status:  status,
		Hint:    "Make sure your IPFS API key and secret are correct.",
		Err:     err,
	}
}

// HintOf returns the hint carried by the first *Error in err's chain.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
