/*
 * psx-sub000 - CPU scratchpad (fast on-chip data cache region)
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

// Package scratchpad models the 1 KiB fast on-chip data RAM mapped at
// 0x1F800000 (KUSEG) / 0x9F800000 (KSEG0 mirror).
package scratchpad

// Size is the scratchpad's capacity in bytes.
const Size = 1024

// Scratchpad is the 1 KiB fast RAM window.
type Scratchpad struct {
	mem [Size]byte
}

// New returns a zero-initialized scratchpad.
func New() *Scratchpad {
	return &Scratchpad{}
}

// Reset zeroes the scratchpad.
func (s *Scratchpad) Reset() {
	for i := range s.mem {
		s.mem[i] = 0
	}
}

func (s *Scratchpad) ReadByte(offset uint32) uint8 {
	return s.mem[offset&(Size-1)]
}

func (s *Scratchpad) WriteByte(offset uint32, value uint8) {
	s.mem[offset&(Size-1)] = value
}

func (s *Scratchpad) ReadHalf(offset uint32) uint16 {
	offset &= Size - 1
	return uint16(s.mem[offset]) | uint16(s.mem[offset+1])<<8
}

func (s *Scratchpad) WriteHalf(offset uint32, value uint16) {
	offset &= Size - 1
	s.mem[offset] = byte(value)
	s.mem[offset+1] = byte(value >> 8)
}

func (s *Scratchpad) ReadWord(offset uint32) uint32 {
	offset &= Size - 1
	return uint32(s.mem[offset]) | uint32(s.mem[offset+1])<<8 |
		uint32(s.mem[offset+2])<<16 | uint32(s.mem[offset+3])<<24
}

func (s *Scratchpad) WriteWord(offset uint32, value uint32) {
	offset &= Size - 1
	s.mem[offset] = byte(value)
	s.mem[offset+1] = byte(value >> 8)
	s.mem[offset+2] = byte(value >> 16)
	s.mem[offset+3] = byte(value >> 24)
}
