package rfid

import "testing"

func TestHexNibble(t *testing.T) {
	cases := map[byte]byte{'0': 0, '9': 9, 'A': 10, 'F': 15, 'a': 10, 'f': 15}
	for c, want := range cases {
		got, ok := hexNibble(c)
		if !ok || got != want {
			t.Fatalf("hexNibble(%q) = %d,%v want %d", c, got, ok, want)
		}
	}
	for _, c := range []byte{'G', 'g', ' ', 0x02, 0x03, '/', ':', '@', '`'} {
		if _, ok := hexNibble(c); ok {
			t.Fatalf("hexNibble(%q) accepted", c)
		}
	}
}

func TestXorPairs(t *testing.T) {
	// 0x08 ^ 0x00 ^ 0x01 ^ 0x23 ^ 0x45
	nibbles := []byte{0, 8, 0, 0, 0, 1, 2, 3, 4, 5}
	if got := xorPairs(nibbles); got != 0x6F {
		t.Fatalf("xorPairs = 0x%02x want 0x6f", got)
	}
}

func TestNibblesToUint(t *testing.T) {
	if got := nibblesToUint([]byte{0xF, 0xF, 0xF, 0xF, 0xF, 0xF}); got != 0xFFFFFF {
		t.Fatalf("nibblesToUint = %x", got)
	}
}

func TestAssemblerRejectsOverrun(t *testing.T) {
	var asm assembler
	asm.n = FrameLen
	if err := asm.push('0'); err == nil {
		t.Fatalf("expected overrun error")
	}
}
