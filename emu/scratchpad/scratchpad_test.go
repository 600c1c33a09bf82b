/*
 * psx-sub000 - CPU scratchpad tests
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

package scratchpad

import "testing"

func TestWordRoundTrip(t *testing.T) {
	s := New()
	s.WriteWord(0x40, 0xcafebabe)
	if got := s.ReadWord(0x40); got != 0xcafebabe {
		t.Errorf("ReadWord = %#x, want %#x", got, 0xcafebabe)
	}
	if got := s.ReadByte(0x40); got != 0xbe {
		t.Errorf("low byte = %#x, want %#x (little-endian)", got, 0xbe)
	}
}

func TestHalfRoundTrip(t *testing.T) {
	s := New()
	s.WriteHalf(0x10, 0x1234)
	if got := s.ReadHalf(0x10); got != 0x1234 {
		t.Errorf("ReadHalf = %#x, want %#x", got, 0x1234)
	}
}

func TestWraps(t *testing.T) {
	s := New()
	s.WriteByte(Size, 0x7f)
	if got := s.ReadByte(0); got != 0x7f {
		t.Errorf("write past Size did not mirror to offset 0, got %#x", got)
	}
}
