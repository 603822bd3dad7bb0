package codec

import (
	"encoding/binary"

	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
)

// bigEndian is used for the fixed-width multi-byte integer fields in
// section 1 (centre, sub-centre, year); the 3-byte section length fields
// don't map to a single encoding/binary width and are handled by
// get24/put24 below. BUFR's wire format is always big-endian, unlike a
// columnar blob format that picks an endianness per file, so there is no
// runtime choice to abstract over here.
var bigEndian = binary.BigEndian

// Identification is the decoded section 1 payload.
type Identification struct {
	MasterTable     uint8
	Centre          uint16
	SubCentre       uint16
	UpdateSequence  uint8
	HasSection2     bool
	DataCategory    uint8
	IntlSubCategory uint8
	LocalSubCategory uint8
	MasterVersion   uint8
	LocalVersion    uint8
	Year            uint16
	Month           uint8
	Day             uint8
	Hour            uint8
	Minute          uint8
	Second          uint8
}

// Element is one decoded or to-be-encoded (descriptor, value) pair.
type Element struct {
	Descriptor descriptor.FXY
	Value      Value
}

// Message is a parsed or about-to-be-encoded BUFR message.
type Message struct {
	Edition             uint8
	ID                  Identification
	Section2            []byte
	Observed            bool
	Compressed          bool
	TopLevelDescriptors []descriptor.FXY
	Subsets             [][]Element
}

func get24(b []byte) int {
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
}

func put24(v int) [3]byte {
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}
