package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestFrame_RoundTripStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	frames := []*Frame{
		NewHelloFrame("watch-1", "Pixel Watch"),
		NewMessageFrame("/simpmusic/watch/companion/request", []byte(`{"action":"status"}`)),
		NewMessageFrame("/simpmusic/login/open", nil),
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}

	d := NewFrameDecoder(&buf)
	for i, want := range frames {
		got, err := d.Next()
		if err != nil {
			t.Fatalf("frame %d: Next failed: %v", i, err)
		}
		if got.Kind != want.Kind || got.Path != want.Path || got.NodeID != want.NodeID ||
			got.DisplayName != want.DisplayName || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("frame %d = %+v, want %+v", i, got, want)
		}
	}

	if _, err := d.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestFrameDecoder_PartialLengthPrefix(t *testing.T) {
	d := NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := d.ReadFrame()
	if !IsFatalCodecError(err) {
		t.Fatalf("expected fatal codec error, got %v", err)
	}
	if kind, _ := KindOf(err); kind != ErrorPartial {
		t.Errorf("kind = %v, want partial", kind)
	}
}

func TestFrameDecoder_PartialPayload(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.Write([]byte{1, 2, 3})

	_, err := NewFrameDecoder(&buf).ReadFrame()
	if kind, _ := KindOf(err); kind != ErrorPartial {
		t.Errorf("expected partial error, got %v", err)
	}
}

func TestFrameDecoder_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(MaxFramePayloadSize+1))

	_, err := NewFrameDecoder(&buf).ReadFrame()
	if !IsFatalCodecError(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if kind, _ := KindOf(err); kind != ErrorTooLarge {
		t.Errorf("kind = %v, want too_large", kind)
	}
}

func TestDecodeFrame_NonFatalErrors(t *testing.T) {
	_, err := DecodeFrame([]byte{0xc1})
	if err == nil || IsFatalCodecError(err) {
		t.Errorf("garbage msgpack should be a non-fatal error, got %v", err)
	}

	payload, err := msgpack.Marshal(map[string]any{"kind": "bogus"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeFrame(payload)
	if kind, _ := KindOf(err); kind != ErrorValidate {
		t.Errorf("unknown kind should be a validate error, got %v", err)
	}
}

func TestFrameDecoder_SkipsBadFrameAndContinues(t *testing.T) {
	var buf bytes.Buffer
	bad := []byte{0xc1}
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(bad)))
	buf.Write(bad)

	w := NewFrameWriter(&buf)
	if err := w.WriteFrame(NewMessageFrame("/p", []byte("x"))); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	d := NewFrameDecoder(&buf)
	if _, err := d.Next(); err == nil || IsFatalCodecError(err) {
		t.Fatalf("first frame: expected non-fatal error, got %v", err)
	}
	f, err := d.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if f.Path != "/p" {
		t.Errorf("Path = %q, want /p", f.Path)
	}
}

func TestFrameWriter_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.WriteFrame(NewMessageFrame("/p", bytes.Repeat([]byte("a"), 512)))
		}()
	}
	wg.Wait()

	d := NewFrameDecoder(&buf)
	count := 0
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("frame %d: %v", count, err)
		}
		if len(f.Data) != 512 {
			t.Fatalf("frame %d has %d bytes", count, len(f.Data))
		}
		count++
	}
	if count != 20 {
		t.Errorf("decoded %d frames, want 20", count)
	}
}

func TestEncodeFrame_TooLarge(t *testing.T) {
	_, err := EncodeFrame(NewMessageFrame("/p", make([]byte, MaxFrameSize)))
	if kind, _ := KindOf(err); kind != ErrorTooLarge {
		t.Errorf("expected too_large, got %v", err)
	}
}
