package wire

import (
	"os"
	"sync/atomic"
)

// Config controls optional decode behaviors. The zero value is the default:
// unknown fields preserved, lenient wire types, no size guard. Encoding has
// no global knobs: the default encoding is always the packed form whose
// length SerializedSize reports.
type Config struct {
	// DiscardUnknownFields: when true, fields the schema does not define are
	// skipped on decode instead of being kept for re-encoding.
	DiscardUnknownFields bool

	// StrictWireType: when true, a known field arriving with a wire type the
	// schema cannot read fails with ErrUnexpectedWireType. When false
	// (default), such occurrences are kept as unknown fields.
	StrictWireType bool

	// MaxMessageSize: when positive, decode rejects inputs longer than this
	// many bytes with ErrMessageTooLarge before parsing anything.
	MaxMessageSize int
}

var config atomic.Pointer[Config]

// SetConfig replaces the global wire configuration. It is safe to call
// concurrently with decoding; calls already in progress keep the
// configuration they started with.
func SetConfig(c Config) { config.Store(&c) }

// CurrentConfig returns the global wire configuration.
func CurrentConfig() Config { return *config.Load() }

func init() {
	// Optional env toggles for test harnesses; defaults remain unchanged if unset.
	var c Config
	if v := os.Getenv("ENTITIES_DISCARD_UNKNOWN"); v == "1" || v == "true" {
		c.DiscardUnknownFields = true
	}
	if v := os.Getenv("ENTITIES_STRICT_WIRE"); v == "1" || v == "true" {
		c.StrictWireType = true
	}
	SetConfig(c)
}
