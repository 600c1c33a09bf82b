/*
 * psx-sub000 - BIOS ROM
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package bios models the 512 KiB, read-only BIOS ROM mapped at 0x1FC00000.
// Loading the image from disk is the CLI driver's job (SPEC_FULL.md §1); this
// package only holds and serves the bytes it is handed.
package bios

import "fmt"

// Size is the BIOS ROM's fixed capacity in bytes.
const Size = 512 * 1024

// BIOS is the read-only ROM image.
type BIOS struct {
	mem [Size]byte
}

// New copies image into a new BIOS, zero-padding if image is shorter than
// Size. It returns an error if image is longer than Size.
func New(image []byte) (*BIOS, error) {
	if len(image) > Size {
		return nil, fmt.Errorf("bios image is %d bytes, exceeds %d byte ROM", len(image), Size)
	}
	b := &BIOS{}
	copy(b.mem[:], image)
	return b, nil
}

func (b *BIOS) ReadByte(offset uint32) uint8 {
	return b.mem[offset&(Size-1)]
}

func (b *BIOS) ReadHalf(offset uint32) uint16 {
	offset &= Size - 1
	return uint16(b.mem[offset]) | uint16(b.mem[offset+1])<<8
}

func (b *BIOS) ReadWord(offset uint32) uint32 {
	offset &= Size - 1
	return uint32(b.mem[offset]) | uint32(b.mem[offset+1])<<8 |
		uint32(b.mem[offset+2])<<16 | uint32(b.mem[offset+3])<<24
}

// WriteByte/WriteHalf/WriteWord are no-ops: the BIOS region is read-only.
// emu/bus is responsible for logging the read-only-write warning (§7); this
// package simply refuses to mutate its backing array.
func (b *BIOS) WriteByte(uint32, uint8)  {}
func (b *BIOS) WriteHalf(uint32, uint16) {}
func (b *BIOS) WriteWord(uint32, uint32) {}
