package ipc

import (
	"errors"
	"fmt"
)

// CodecErrorKind classifies codec and framing errors.
type CodecErrorKind int

const (
	// ErrorPartial indicates a truncated or incomplete frame.
	ErrorPartial CodecErrorKind = iota
	// ErrorTooLarge indicates a frame or envelope exceeding its size limit.
	ErrorTooLarge
	// ErrorDecode indicates bytes that could not be decoded.
	ErrorDecode
	// ErrorValidate indicates a decoded value missing a required field.
	ErrorValidate
	// ErrorEncode indicates a value that could not be encoded.
	ErrorEncode
)

// String returns the kind name.
func (k CodecErrorKind) String() string {
	switch k {
	case ErrorPartial:
		return "partial"
	case ErrorTooLarge:
		return "too_large"
	case ErrorDecode:
		return "decode"
	case ErrorValidate:
		return "validate"
	case ErrorEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// CodecError represents an envelope or frame codec error.
type CodecError struct {
	Kind CodecErrorKind
	Msg  string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error should close the stream it came from.
// Partial and oversized frames leave the stream position unknown.
func (e *CodecError) IsFatal() bool {
	return e.Kind == ErrorPartial || e.Kind == ErrorTooLarge
}

// IsFatalCodecError returns true if err is a fatal codec error.
func IsFatalCodecError(err error) bool {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.IsFatal()
	}
	return false
}

// KindOf returns the kind of a codec error, or false if err is not one.
func KindOf(err error) (CodecErrorKind, bool) {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.Kind, true
	}
	return 0, false
}
