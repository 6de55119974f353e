package rfid

import "fmt"

const (
	StartCode  byte = 0x02
	EndCode    byte = 0x03
	FrameLen        = 14
	PayloadLen      = 12

	// BodyLen is the checksummed part of the payload: tag type and tag id.
	BodyLen = 10
)

// Payload character ranges.
const (
	typeStart     = 0
	idStart       = 4
	checksumStart = BodyLen
)

// assembler collects one frame byte by byte. The zero value is empty and
// ready; a fresh assembler is used for every read attempt.
type assembler struct {
	n       int
	nibbles [PayloadLen]byte
	raw     [PayloadLen]byte
}

func (a *assembler) complete() bool {
	return a.n == FrameLen
}

// push validates b against its wire position and stores it.
func (a *assembler) push(b byte) error {
	off := a.n
	switch {
	case off == 0:
		if b != StartCode {
			return &DecodeError{Err: ErrFraming, Offset: off, Got: b, Want: StartCode}
		}
	case off <= PayloadLen:
		v, ok := hexNibble(b)
		if !ok {
			return &DecodeError{Err: ErrHexDecode, Offset: off, Got: b}
		}
		a.nibbles[off-1] = v
		a.raw[off-1] = b
	case off == FrameLen-1:
		if b != EndCode {
			return &DecodeError{Err: ErrFraming, Offset: off, Got: b, Want: EndCode}
		}
	default:
		return &DecodeError{Err: ErrFraming, Offset: off, Got: b, Detail: "frame already complete"}
	}
	a.n++
	return nil
}

// record verifies the checksum of a complete frame and builds the TagRecord.
func (a *assembler) record() (TagRecord, error) {
	if !a.complete() {
		return TagRecord{}, &DecodeError{Err: ErrFraming, Offset: a.n, Detail: "incomplete frame"}
	}
	calculated := xorPairs(a.nibbles[:checksumStart])
	received := pairByte(a.nibbles[checksumStart], a.nibbles[checksumStart+1])
	if calculated != received {
		return TagRecord{}, &DecodeError{
			Err:    ErrChecksumMismatch,
			Offset: 1 + checksumStart,
			Got:    received,
			Want:   calculated,
		}
	}

	number := nibblesToUint(a.nibbles[idStart:checksumStart])
	return TagRecord{
		Type:     uint16(nibblesToUint(a.nibbles[typeStart:idStart])),
		ID:       fmt.Sprintf("%010d", number),
		Number:   number,
		Checksum: received,
		Raw:      string(a.raw[:]),
	}, nil
}

// DecodeFrame validates an already collected frame and returns its record.
// Checks run in wire order: start marker, payload hex digits, end marker,
// then the checksum.
func DecodeFrame(frame []byte) (TagRecord, error) {
	if len(frame) != FrameLen {
		return TagRecord{}, &DecodeError{
			Err:    ErrFraming,
			Offset: len(frame),
			Detail: fmt.Sprintf("frame length %d, want %d", len(frame), FrameLen),
		}
	}
	var asm assembler
	for _, b := range frame {
		if err := asm.push(b); err != nil {
			return TagRecord{}, err
		}
	}
	return asm.record()
}

// EncodeFrame builds a wire frame from the ten body characters (tag type and
// tag id), appending the checksum computed forward as upper-case hex.
func EncodeFrame(body string) ([]byte, error) {
	if len(body) != BodyLen {
		return nil, fmt.Errorf("rfid: encode: body has %d characters, want %d", len(body), BodyLen)
	}
	nibbles := make([]byte, BodyLen)
	for i := 0; i < BodyLen; i++ {
		v, ok := hexNibble(body[i])
		if !ok {
			return nil, &DecodeError{Err: ErrHexDecode, Offset: 1 + i, Got: body[i]}
		}
		nibbles[i] = v
	}

	frame := make([]byte, 0, FrameLen)
	frame = append(frame, StartCode)
	frame = append(frame, body...)
	frame = append(frame, fmt.Sprintf("%02X", xorPairs(nibbles))...)
	frame = append(frame, EndCode)
	return frame, nil
}
