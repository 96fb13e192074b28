package params

import "errors"

// Error kinds. Every error produced by the training core wraps one of these.
var (
	ErrResource = errors.New("resource error")
	ErrFormat   = errors.New("format error")
	ErrConfig   = errors.New("configuration error")
)

// Format errors raised while reading task tagged corpora.
var (
	ErrMissingTags = fmtErr("missing task tag segment")
	ErrBadTag      = fmtErr("malformed task tag")
	ErrTaskCount   = fmtErr("task count differs from previous lines")
)

type formatError struct{ msg string }

func fmtErr(msg string) error { return &formatError{msg: msg} }

func (e *formatError) Error() string { return e.msg }

func (e *formatError) Unwrap() error { return ErrFormat }
