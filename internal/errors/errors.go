// Package errors defines the stage-tagged error taxonomy shared by every step
// of the certificate pipeline. Collaborator errors (pdfcpu, gozxing, crypto)
// are always wrapped in an *Error so callers can branch on Kind instead of on
// a library's own error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies what went wrong and at which pipeline stage.
type Kind int

const (
	KindUnknown Kind = iota
	KindRasterIO
	KindImageConversion
	KindQRNotFound
	KindQRExtract
	KindQRDecode
	KindQRInvalidUTF8
	KindEnvelopeMalformed
	KindEnvelopeUnknownVersion
	KindEnvelopeBase64
	KindCryptoFailed
	KindCryptoEmpty
	KindCryptoInvalidUTF8
	KindRecordMissingField
	KindRecordMalformedField
	KindUnsupportedInput
)

// String returns the stable identifier of the kind.
func (k Kind) String() string {
	switch k {
	case KindRasterIO:
		return "raster-io"
	case KindImageConversion:
		return "image-conversion"
	case KindQRNotFound:
		return "qr-not-found"
	case KindQRExtract:
		return "qr-extract"
	case KindQRDecode:
		return "qr-decode"
	case KindQRInvalidUTF8:
		return "qr-invalid-utf8"
	case KindEnvelopeMalformed:
		return "envelope-malformed"
	case KindEnvelopeUnknownVersion:
		return "envelope-unknown-version"
	case KindEnvelopeBase64:
		return "envelope-base64"
	case KindCryptoFailed:
		return "crypto-failed"
	case KindCryptoEmpty:
		return "crypto-empty"
	case KindCryptoInvalidUTF8:
		return "crypto-invalid-utf8"
	case KindRecordMissingField:
		return "record-missing-field"
	case KindRecordMalformedField:
		return "record-malformed-field"
	case KindUnsupportedInput:
		return "unsupported-input"
	default:
		return "unknown"
	}
}

// Stage returns the pipeline stage the kind belongs to.
func (k Kind) Stage() string {
	switch k {
	case KindRasterIO, KindImageConversion:
		return "raster"
	case KindQRNotFound, KindQRExtract, KindQRDecode, KindQRInvalidUTF8:
		return "qr"
	case KindEnvelopeMalformed, KindEnvelopeUnknownVersion, KindEnvelopeBase64:
		return "envelope"
	case KindCryptoFailed, KindCryptoEmpty, KindCryptoInvalidUTF8:
		return "crypto"
	case KindRecordMissingField, KindRecordMalformedField:
		return "record"
	case KindUnsupportedInput:
		return "input"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Field names the record field for the record-* kinds.
	Field string
	// Version carries the numeric token for KindEnvelopeUnknownVersion.
	Version uint8
	// Path is the file the failure relates to, when there is one.
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindRecordMissingField:
		msg = fmt.Sprintf("record: missing field %s", e.Field)
	case KindRecordMalformedField:
		msg = fmt.Sprintf("record: malformed field %s", e.Field)
	case KindEnvelopeUnknownVersion:
		msg = fmt.Sprintf("envelope: unknown payload version %d", e.Version)
	default:
		msg = e.Kind.Stage()
		if e.Message != "" {
			msg += ": " + e.Message
		} else {
			msg += ": " + e.Kind.String()
		}
	}

	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by kind. A target that names a field only matches that field,
// and an unknown-version target only matches the same version.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Field != "" && e.Field != t.Field {
		return false
	}
	if t.Kind == KindEnvelopeUnknownVersion && e.Version != t.Version {
		return false
	}
	return true
}

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags a collaborator error with a kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// WrapPath is Wrap with the file the failure relates to.
func WrapPath(err error, kind Kind, path, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Path: path, Err: err}
}

// MissingField reports that the token stream ended before field.
func MissingField(field string) error {
	return &Error{Kind: KindRecordMissingField, Field: field}
}

// MalformedField reports that the token for field failed to parse.
func MalformedField(field string, err error) error {
	return &Error{Kind: KindRecordMalformedField, Field: field, Err: err}
}

// UnknownVersion reports an envelope version that parses but is not decodable.
func UnknownVersion(version uint8) error {
	return &Error{Kind: KindEnvelopeUnknownVersion, Version: version}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldOf returns the record field named by err, if any.
func FieldOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Field
	}
	return ""
}
