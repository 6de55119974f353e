package rfid

import (
	"fmt"
	"strings"
)

// Known tag classes reported in the first two payload bytes.
const (
	TypeRound     uint16 = 0x0800
	TypeRectangle uint16 = 0x0300
)

// TagRecord is the checksum-verified content of one frame.
type TagRecord struct {
	Type     uint16
	ID       string // Number rendered as 10 zero-padded decimal digits
	Number   uint32
	Checksum byte
	Raw      string // the 12 payload characters exactly as received
}

// TypeName returns the card class for known tag types.
func (r TagRecord) TypeName() string {
	switch r.Type {
	case TypeRound:
		return "round"
	case TypeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

func (r TagRecord) TypeHex() string {
	return fmt.Sprintf("0x%04x", r.Type)
}

func (r TagRecord) ChecksumHex() string {
	return fmt.Sprintf("0x%02x", r.Checksum)
}

// MaskedID hides all but the last four digits of ID.
func (r TagRecord) MaskedID() string {
	if len(r.ID) <= 4 {
		return r.ID
	}
	return strings.Repeat("*", len(r.ID)-4) + r.ID[len(r.ID)-4:]
}
