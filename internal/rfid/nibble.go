package rfid

// hexNibble converts one ASCII hex character to its 4-bit value.
func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func pairByte(hi, lo byte) byte {
	return hi<<4 | lo
}

// xorPairs folds consecutive nibble pairs into bytes and XORs them together.
// len(nibbles) must be even.
func xorPairs(nibbles []byte) byte {
	var sum byte
	for i := 0; i+1 < len(nibbles); i += 2 {
		sum ^= pairByte(nibbles[i], nibbles[i+1])
	}
	return sum
}

func nibblesToUint(nibbles []byte) uint32 {
	var v uint32
	for _, n := range nibbles {
		v = v<<4 | uint32(n)
	}
	return v
}
