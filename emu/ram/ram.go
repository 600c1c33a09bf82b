/*
 * psx-sub000 - Main system RAM
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

// Package ram models the console's 2 MiB of main RAM, addressed as a flat
// byte array the way the teacher keeps its main store as one flat word array.
package ram

// Size is the console's installed RAM in bytes (2 MiB).
const Size = 2 * 1024 * 1024

// RAM is a flat little-endian byte store backing the KUSEG/KSEG0/KSEG1
// physical RAM region (and its three mirrors).
type RAM struct {
	mem [Size]byte
}

// New returns a zero-initialized RAM.
func New() *RAM {
	return &RAM{}
}

// Reset zeroes every byte.
func (r *RAM) Reset() {
	for i := range r.mem {
		r.mem[i] = 0
	}
}

// ReadByte returns the byte at offset within the RAM region.
func (r *RAM) ReadByte(offset uint32) uint8 {
	return r.mem[offset&(Size-1)]
}

// WriteByte stores a byte at offset within the RAM region.
func (r *RAM) WriteByte(offset uint32, value uint8) {
	r.mem[offset&(Size-1)] = value
}

// ReadHalf returns the little-endian halfword at offset.
func (r *RAM) ReadHalf(offset uint32) uint16 {
	offset &= Size - 1
	return uint16(r.mem[offset]) | uint16(r.mem[offset+1])<<8
}

// WriteHalf stores a little-endian halfword at offset.
func (r *RAM) WriteHalf(offset uint32, value uint16) {
	offset &= Size - 1
	r.mem[offset] = byte(value)
	r.mem[offset+1] = byte(value >> 8)
}

// ReadWord returns the little-endian word at offset.
func (r *RAM) ReadWord(offset uint32) uint32 {
	offset &= Size - 1
	return uint32(r.mem[offset]) | uint32(r.mem[offset+1])<<8 |
		uint32(r.mem[offset+2])<<16 | uint32(r.mem[offset+3])<<24
}

// WriteWord stores a little-endian word at offset.
func (r *RAM) WriteWord(offset uint32, value uint32) {
	offset &= Size - 1
	r.mem[offset] = byte(value)
	r.mem[offset+1] = byte(value >> 8)
	r.mem[offset+2] = byte(value >> 16)
	r.mem[offset+3] = byte(value >> 24)
}
