package wire

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error kinds surfaced by the decoder and encoder. Every decode failure
// wraps exactly one of them, so callers can test with errors.Is.
var (
	ErrMalformedVarint       = errors.New("malformed varint")
	ErrTruncatedInput        = errors.New("truncated input")
	ErrUnexpectedWireType    = errors.New("unexpected wire type")
	ErrSerializationOverflow = errors.New("serialization overflow")
	ErrInvalidTag            = errors.New("invalid tag")
	ErrMessageTooLarge       = errors.New("message too large")
)

// DecodeError represents a decoding error at a byte offset, optionally
// annotated with the field path it occurred in.
type DecodeError struct {
	Offset    int      // byte offset into the input where the failing item started
	FieldPath []string // e.g., ["ids"]
	Err       error    // underlying error, wraps one of the Err* kinds
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if len(e.FieldPath) == 0 {
		return fmt.Sprintf("decode error at offset %d: %v", e.Offset, e.Err)
	}

	return fmt.Sprintf("decode error at offset %d in field %s: %v", e.Offset, strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// newDecodeError wraps err with the offset it was detected at. An error
// that already carries an offset keeps it.
func newDecodeError(offset int, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Offset: offset, Err: err}
}

// WrapField prefixes the field path of a decode error with fieldName.
func WrapField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{
			Offset:    de.Offset,
			FieldPath: append([]string{fieldName}, de.FieldPath...),
			Err:       de.Err,
		}
	}

	return &DecodeError{
		Offset:    -1,
		FieldPath: []string{fieldName},
		Err:       err,
	}
}

// Offset reports the byte offset carried by err, or -1 when there is none.
func Offset(err error) int {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Offset
	}
	return -1
}
