// Package packet extracts typed fields from framed 64-bit payloads and
// classifies them as sensor, keypad, or key-fob transmissions.
package packet

import "github.com/herlein/sensor345rx/pkg/crc16"

// Packet holds the decoded fields of one 64-bit frame.
type Packet struct {
	SOF    uint8
	Serial uint32
	Type   uint8
	CRC    uint16

	Raw uint64
}

// Decode extracts the SOF/serial/type/crc fields from a raw 64-bit frame,
// per the fixed bit layout (sync | sof(4) | serial(20) | type(8) | crc(16)).
func Decode(frame uint64) Packet {
	return Packet{
		SOF:    uint8((frame >> 44) & 0xF),
		Serial: uint32((frame >> 24) & 0xFFFFF),
		Type:   uint8((frame >> 16) & 0xFF),
		CRC:    uint16(frame & 0xFFFF),
		Raw:    frame,
	}
}

// Class identifies which device family a frame belongs to.
type Class int

const (
	ClassInvalid Class = iota
	ClassSensor
	ClassKeypad
	ClassKeyfob
)

// KnownKeypadSerials answers whether a serial is already tracked as a
// keypad. A frame that passes only the sensor probe is not routed as a
// sensor when its serial is a known keypad.
type KnownKeypadSerials interface {
	IsKnownKeypad(serial uint32) bool
}

// Classify runs the three CRC probes described by the spec and applies
// the routing rule: sensor when only the sensor probe passes and the
// serial is not a known keypad, else keypad, else key-fob. It reports whether at least one probe
// succeeded (receiver-health signal) independent of routing.
func Classify(p Packet, known KnownKeypadSerials) (class Class, anyValid bool) {
	_, autoPoly := crc16.BrandForSOF(p.SOF)
	validSensor := crc16.Valid(p.Raw, autoPoly)
	validKeypad := crc16.Valid(p.Raw, crc16.Poly2GIG) && p.Type&0x01 != 0
	validKeyfob := crc16.Valid(p.Raw, crc16.Poly2GIG) && p.Type&0x02 != 0

	anyValid = validSensor || validKeypad || validKeyfob

	switch {
	case validSensor && !validKeypad && !validKeyfob && !known.IsKnownKeypad(p.Serial):
		return ClassSensor, anyValid
	case validKeypad:
		return ClassKeypad, anyValid
	case validKeyfob:
		return ClassKeyfob, anyValid
	default:
		return ClassInvalid, anyValid
	}
}
