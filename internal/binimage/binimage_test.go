package binimage

import (
	"bytes"
	"testing"

	"github.com/keurnel/uni/internal/chunk"
	"github.com/keurnel/uni/internal/diag"
)

// Scenario B / Property 5: byte N of the binary after the 16-byte header
// equals the concatenation of chunk bytes interspersed with zero gap-fill.
func TestLayoutWithGapFill(t *testing.T) {
	loc := diag.NewLocation("start.asm", 0, -1)
	chunks := []chunk.Chunk{
		chunk.NewData(0, loc, []byte{0xBE, 0xBA, 0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE}),
		chunk.NewSpace(8, loc, 4),
		chunk.NewData(12, loc, []byte{1, 2, 3}),
	}

	out, err := Write(chunks, 0, 0)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	body := out[HeaderSize:]
	want := []byte{0xBE, 0xBA, 0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE, 0, 0, 0, 0, 1, 2, 3}
	if !bytes.Equal(body, want) {
		t.Fatalf("got % x want % x", body, want)
	}
}

func TestHeaderWords(t *testing.T) {
	out, err := Write(nil, 0x10, 0x20)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(out) != HeaderSize {
		t.Fatalf("expected just the header, got %d bytes", len(out))
	}
	entry := out[0:8]
	want := []byte{0x10, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(entry, want) {
		t.Fatalf("entry header mismatch: % x", entry)
	}
}

func TestRejectsBackwardOffset(t *testing.T) {
	loc := diag.NewLocation("a.asm", 0, -1)
	chunks := []chunk.Chunk{
		chunk.NewData(8, loc, []byte{1}),
		chunk.NewData(0, loc, []byte{2}),
	}
	if _, err := Write(chunks, 0, 0); err == nil {
		t.Fatalf("expected error for out-of-order chunk offsets")
	}
}

func TestReadRoundTrip(t *testing.T) {
	loc := diag.NewLocation("start.asm", 0, -1)
	chunks := []chunk.Chunk{
		chunk.NewData(0, loc, []byte{1, 2, 3, 4}),
	}
	out, err := Write(chunks, 0x10, 0x20)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	img, err := Read(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if img.Entry != 0x10 || img.InterruptHandler != 0x20 {
		t.Fatalf("header mismatch: entry=%#x interrupt=%#x", img.Entry, img.InterruptHandler)
	}
	if !bytes.Equal(img.Code, []byte{1, 2, 3, 4}) {
		t.Fatalf("code mismatch: % x", img.Code)
	}
}

func TestReadRejectsShortImage(t *testing.T) {
	if _, err := Read([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for image shorter than the header")
	}
}
