package rfid_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/danmuck/pamrfid/internal/rfid"
	"github.com/danmuck/pamrfid/internal/rfid/rfidtest"
	"github.com/danmuck/pamrfid/internal/testutil/testlog"
)

func newDecoder(t *testing.T, src rfid.ByteSource) *rfid.Decoder {
	t.Helper()
	return rfid.NewDecoder(src, rfid.WithLogger(testlog.Start(t)), rfid.WithByteTimeout(10*time.Millisecond))
}

func TestReadTagSuccess(t *testing.T) {
	src := rfidtest.Bytes(rfidtest.Frame(t, "0800012345")...)
	rec, err := newDecoder(t, src).ReadTag(context.Background())
	if err != nil {
		t.Fatalf("read tag: %v", err)
	}
	if rec.Raw != "08000123456F" || rec.ID != "0000074565" || rec.Type != 0x0800 || rec.Checksum != 0x6F {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if src.Reads() != rfid.FrameLen {
		t.Fatalf("expected %d reads, got %d", rfid.FrameLen, src.Reads())
	}
}

func TestReadTagStopsAtStartMarkerMismatch(t *testing.T) {
	frame := rfidtest.Frame(t, "0800012345")
	frame[0] = '0'
	src := rfidtest.Bytes(frame...)
	_, err := newDecoder(t, src).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrFraming) {
		t.Fatalf("expected ErrFraming, got %v", err)
	}
	if src.Reads() != 1 {
		t.Fatalf("decoder consumed %d bytes after bad start marker", src.Reads())
	}
}

func TestReadTagStopsAtFirstNonHexCharacter(t *testing.T) {
	frame := rfidtest.Frame(t, "0800012345")
	frame[3] = 'x'
	src := rfidtest.Bytes(frame...)
	_, err := newDecoder(t, src).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrHexDecode) {
		t.Fatalf("expected ErrHexDecode, got %v", err)
	}
	if src.Reads() != 4 {
		t.Fatalf("expected 4 reads, got %d", src.Reads())
	}
}

func TestReadTagEndMarker(t *testing.T) {
	frame := rfidtest.Frame(t, "0800012345")
	frame[13] = 0x02
	_, err := newDecoder(t, rfidtest.Bytes(frame...)).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrFraming) {
		t.Fatalf("expected ErrFraming, got %v", err)
	}
}

func TestReadTagChecksumMismatch(t *testing.T) {
	frame := rfidtest.CorruptNibble(rfidtest.Frame(t, "0800012345"), 12)
	rec, err := newDecoder(t, rfidtest.Bytes(frame...)).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if rec != (rfid.TagRecord{}) {
		t.Fatalf("record leaked on mismatch: %+v", rec)
	}
}

func TestReadTagTimeoutAfterThirteenBytes(t *testing.T) {
	frame := rfidtest.Frame(t, "0800012345")
	src := rfidtest.Bytes(frame[:13]...).ThenTimeout()
	_, err := newDecoder(t, src).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrTransportTimeout) {
		t.Fatalf("expected ErrTransportTimeout, got %v", err)
	}
	if rfid.IsStructural(err) {
		t.Fatalf("timeout classified as structural: %v", err)
	}
	var derr *rfid.DecodeError
	if !errors.As(err, &derr) || derr.Offset != 13 {
		t.Fatalf("unexpected decode error: %+v", derr)
	}
	if got, want := err.Error(), "rfid: transport timeout at offset 13"; got != want {
		t.Fatalf("message got=%q want=%q", got, want)
	}
}

func TestReadTagEndOfStreamIsTimeout(t *testing.T) {
	frame := rfidtest.Frame(t, "0800012345")
	_, err := newDecoder(t, rfidtest.Bytes(frame[:5]...)).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrTransportTimeout) {
		t.Fatalf("expected ErrTransportTimeout, got %v", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected cause io.EOF, got %v", err)
	}
	if got, want := err.Error(), "rfid: transport timeout at offset 5: EOF"; got != want {
		t.Fatalf("message got=%q want=%q", got, want)
	}
}

func TestReadTagOtherSourceErrorIsTransport(t *testing.T) {
	boom := errors.New("device unplugged")
	_, err := newDecoder(t, rfidtest.Bytes(0x02).ThenError(boom)).ReadTag(context.Background())
	if !errors.Is(err, rfid.ErrTransport) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrTransport wrapping cause, got %v", err)
	}
	if errors.Is(err, rfid.ErrTransportTimeout) {
		t.Fatalf("device failure reported as timeout")
	}
}

func TestReadTagCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := rfidtest.Bytes(rfidtest.Frame(t, "0800012345")...)
	_, err := newDecoder(t, src).ReadTag(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if src.Reads() != 0 {
		t.Fatalf("cancelled read consumed bytes")
	}
}

func TestReadTagStartsFreshEachCall(t *testing.T) {
	good := rfidtest.Frame(t, "0300112233")
	bad := rfidtest.Frame(t, "0800012345")
	src := rfidtest.Bytes(bad[:6]...).ThenTimeout().Then(good...)
	dec := newDecoder(t, src)

	if _, err := dec.ReadTag(context.Background()); !errors.Is(err, rfid.ErrTransportTimeout) {
		t.Fatalf("expected timeout on first read, got %v", err)
	}
	rec, err := dec.ReadTag(context.Background())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if rec.Raw[:10] != "0300112233" {
		t.Fatalf("partial frame leaked into next read: %q", rec.Raw)
	}
}

func TestReadTagTwiceYieldsIdenticalRecords(t *testing.T) {
	frame := rfidtest.Frame(t, "0800C0FFEE")
	src := rfidtest.Bytes(frame...).Then(frame...)
	dec := newDecoder(t, src)
	a, err := dec.ReadTag(context.Background())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	b, err := dec.ReadTag(context.Background())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if a != b {
		t.Fatalf("records differ: %+v vs %+v", a, b)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"timeout":   &rfid.DecodeError{Err: rfid.ErrTransportTimeout},
		"framing":   &rfid.DecodeError{Err: rfid.ErrFraming},
		"hex":       &rfid.DecodeError{Err: rfid.ErrHexDecode},
		"checksum":  &rfid.DecodeError{Err: rfid.ErrChecksumMismatch},
		"transport": errors.New("other"),
	}
	for want, err := range cases {
		if got := rfid.Classify(err); got != want {
			t.Fatalf("Classify(%v) = %q want %q", err, got, want)
		}
	}
}
