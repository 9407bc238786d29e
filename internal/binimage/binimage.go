// Package binimage implements the binary writer (C6): it lays out an
// assembled chunk buffer contiguously, gap-filling zeros to each chunk's
// recorded offset, and prepends the two 64-bit header words the format
// describes.
package binimage

import (
	"encoding/binary"
	"fmt"

	"github.com/keurnel/uni/internal/chunk"
)

// HeaderSize is the number of bytes occupied by the entry-point and
// interrupt-handler header words, before the code/data region starts.
const HeaderSize = 16

// Write lays out chunks (assumed already offset- and byte-order sorted by
// the assembler) into a flat binary image: entry point, interrupt handler,
// then the chunk bytes with zero-gap fill to each chunk's recorded offset.
func Write(chunks []chunk.Chunk, entry, interruptHandler uint64) ([]byte, error) {
	var out []byte
	out = append(out, le64(entry)...)
	out = append(out, le64(interruptHandler)...)

	var offset uint64
	for _, c := range chunks {
		if c.Offset < offset {
			return nil, fmt.Errorf("binimage: chunk at %s has offset %d behind current write position %d", c.Loc, c.Offset, offset)
		}
		for offset < c.Offset {
			out = append(out, 0)
			offset++
		}

		b, err := c.Bytes()
		if err != nil {
			return nil, fmt.Errorf("binimage: %w", err)
		}
		out = append(out, b...)
		offset += uint64(len(b))
	}

	return out, nil
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Image is a parsed binary image: the two header words and the raw
// code/data region that follows them.
type Image struct {
	Entry            uint64
	InterruptHandler uint64
	Code             []byte // everything after the 16-byte header
}

// Read parses a binary image written by Write. It is the visualizer's
// entry point for loading a --bin file: there is no chunk structure to
// recover (chunk boundaries are not recorded in the image), only the
// header words and a flat byte region addressed by offset from
// HeaderSize.
func Read(data []byte) (Image, error) {
	if len(data) < HeaderSize {
		return Image{}, fmt.Errorf("binimage: image too short: %d bytes, want at least %d", len(data), HeaderSize)
	}
	return Image{
		Entry:            binary.LittleEndian.Uint64(data[0:8]),
		InterruptHandler: binary.LittleEndian.Uint64(data[8:16]),
		Code:             data[HeaderSize:],
	}, nil
}
