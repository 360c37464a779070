// Package layer holds the per-protocol decoders plugged into the dissection
// engine and the registry that maps an IPv6 next header to its decoder.
package layer

import (
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "layer")

// Layer is a single decoded protocol layer.
//
// DecodeBytes decodes the layer from the start of data and reports how many
// bytes it claimed. When next is non-nil the engine hands the remaining bytes
// to it.
type Layer interface {
	DecodeBytes(data []byte) (next Layer, consumed int, err error)
	Name() string
	ShortName() string
}

// TooShortError is returned when a buffer cannot hold the layout a decoder
// expects.
type TooShortError struct {
	Layer     string
	Required  int
	Available int
	// Data is a lowercase hex dump of the buffer that was rejected.
	Data string
}

func newTooShort(layer string, required int, data []byte) *TooShortError {
	return &TooShortError{
		Layer:     layer,
		Required:  required,
		Available: len(data),
		Data:      hex.EncodeToString(data),
	}
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("data too short for %s: required %d, available %d (data %q)",
		e.Layer, e.Required, e.Available, e.Data)
}
