package gosheet

import "fmt"

// ErrorKind is a taxonomy of failure modes a Parse call can surface
// (spec §7's "kinds, not types"), generalising the teacher's single
// flat XLRDError into a comparable enum so callers can branch with
// errors.Is instead of string matching.
type ErrorKind int

const (
	// UnsupportedExtension means the dispatcher has no driver for the
	// given extension hint.
	UnsupportedExtension ErrorKind = iota
	// MalformedContainer means a CFB or ZIP structural violation was
	// found: bad signature, chain corruption, size/offset out of range.
	MalformedContainer
	// MissingStream means a required stream is absent (xl/workbook.xml,
	// Workbook/Book, content.xml, Index.zip).
	MissingStream
	// RecordTruncated means a BIFF record's declared length exceeds the
	// remaining stream; the parser stopped gracefully with what it had.
	RecordTruncated
	// DecodeFailure means the PTG decoder hit an unrecognised token or
	// a truncated operand.
	DecodeFailure
	// Encoding means CSV/DIF text could not be decoded with any tried
	// encoding in the cascade.
	Encoding
	// InputInvalid means the input was null, empty, or an unsupported
	// Source type.
	InputInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedExtension:
		return "UnsupportedExtension"
	case MalformedContainer:
		return "MalformedContainer"
	case MissingStream:
		return "MissingStream"
	case RecordTruncated:
		return "RecordTruncated"
	case DecodeFailure:
		return "DecodeFailure"
	case Encoding:
		return "Encoding"
	case InputInvalid:
		return "InputInvalid"
	default:
		return "Unknown"
	}
}

// Error is the one error type every Parse failure surfaces, carrying
// the kind, the driver that raised it, and an informative context
// token (record type, stream path, byte offset) per spec §7's
// "user-visible behaviour" contract.
type Error struct {
	Kind    ErrorKind
	Driver  string
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gosheet: %s driver=%s context=%s: %v", e.Kind, e.Driver, e.Context, e.Err)
	}
	return fmt.Sprintf("gosheet: %s driver=%s context=%s", e.Kind, e.Driver, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs an *Error for the given kind/driver/context,
// wrapping cause (which may be nil).
func NewError(kind ErrorKind, driver, context string, cause error) *Error {
	return &Error{Kind: kind, Driver: driver, Context: context, Err: cause}
}

// Is lets errors.Is(err, gosheet.NewError(kind, "", "", nil)) match any
// *Error sharing the same Kind, regardless of Driver/Context/Err —
// mirroring the sentinel-by-kind comparison spec §7's Go representation
// calls for.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
