/*
 * psx-sub000 - GPU command front-end tests
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

package gpu

import "testing"

type capturingRenderer struct {
	polys []Polygon
}

func (r *capturingRenderer) DrawPolygon(p Polygon) { r.polys = append(r.polys, p) }

func TestShadedTriangleEmitsOnePolygon(t *testing.T) {
	r := &capturingRenderer{}
	g := New(r)

	g.WriteGP0(0x30_112233) // shaded triangle, vertex 1 color
	g.WriteGP0(0x00100020)  // pos1: x=0x20, y=0x10
	g.WriteGP0(0x00445566)  // color2
	g.WriteGP0(0x00200040)  // pos2
	g.WriteGP0(0x00778899)  // color3
	g.WriteGP0(0x00300060)  // pos3

	if len(r.polys) != 1 {
		t.Fatalf("DrawPolygon called %d times, want 1", len(r.polys))
	}
	p := r.polys[0]
	if p.NumVertices != 3 || !p.Gouraud || p.Textured {
		t.Fatalf("polygon = %+v, want 3-vertex gouraud non-textured", p)
	}
	if p.Vertices[0].R != 0x11 || p.Vertices[0].G != 0x22 || p.Vertices[0].B != 0x33 {
		t.Errorf("vertex 0 color = %+v, want 0x11,0x22,0x33", p.Vertices[0])
	}
	if p.Vertices[0].X != 0x20 || p.Vertices[0].Y != 0x10 {
		t.Errorf("vertex 0 pos = (%d,%d), want (0x20,0x10)", p.Vertices[0].X, p.Vertices[0].Y)
	}
	if p.Vertices[2].R != 0x77 {
		t.Errorf("vertex 2 color.R = %#x, want 0x77", p.Vertices[2].R)
	}
}

func TestPhaseReturnsToReadyAfterPolygon(t *testing.T) {
	g := New(nil)
	words := []uint32{0x20_000000, 0, 0, 0}
	for _, w := range words {
		g.WriteGP0(w)
	}
	if g.phase != phaseReady {
		t.Errorf("phase after monochrome triangle = %v, want Ready", g.phase)
	}
}

func TestMonochromeTriangleUsesCommandColorForEveryVertex(t *testing.T) {
	r := &capturingRenderer{}
	g := New(r)
	g.WriteGP0(0x20_AABBCC)
	g.WriteGP0(0)
	g.WriteGP0(0)
	g.WriteGP0(0)
	p := r.polys[0]
	for i := 0; i < 3; i++ {
		if p.Vertices[i].R != 0xAA || p.Vertices[i].G != 0xBB || p.Vertices[i].B != 0xCC {
			t.Errorf("vertex %d color = %+v, want 0xaa,0xbb,0xcc", i, p.Vertices[i])
		}
	}
}

func TestQuadPolygonNeedsFourVertices(t *testing.T) {
	r := &capturingRenderer{}
	g := New(r)
	g.WriteGP0(0x28_000000) // monochrome quad
	for i := 0; i < 3; i++ {
		g.WriteGP0(0)
		if len(r.polys) != 0 {
			t.Fatalf("polygon emitted after only %d position words", i+1)
		}
	}
	g.WriteGP0(0)
	if len(r.polys) != 1 || r.polys[0].NumVertices != 4 {
		t.Fatalf("polygon = %+v, want one 4-vertex polygon", r.polys)
	}
}

func TestGP0QuickRectFillIsFatal(t *testing.T) {
	g := New(nil)
	g.WriteGP0(0x02_000000)
	if err := g.Err(); err == nil {
		t.Error("GP0 0x02 did not record an error")
	}
}

func TestGP0UnknownOpcodeIsFatal(t *testing.T) {
	g := New(nil)
	g.WriteGP0(0xFF_000000)
	if err := g.Err(); err == nil {
		t.Error("unknown GP0 opcode did not record an error")
	}
	if err := g.Err(); err != nil {
		t.Errorf("Err() did not clear after being read, got %v", err)
	}
}

func TestGP1DisplayEnable(t *testing.T) {
	g := New(nil)
	g.WriteGP1(0x03_000001) // display off
	if g.ReadGPUSTAT()&statDisplayOff == 0 {
		t.Error("display-off bit not set")
	}
	g.WriteGP1(0x03_000000) // display on
	if g.ReadGPUSTAT()&statDisplayOff != 0 {
		t.Error("display-off bit not cleared")
	}
}

func TestGP1AckIrqClearsStatusBit(t *testing.T) {
	g := New(nil)
	g.stat |= statIRQ
	g.WriteGP1(0x02_000000)
	if g.ReadGPUSTAT()&statIRQ != 0 {
		t.Error("GP1 0x02 did not clear the IRQ status bit")
	}
}

func TestGPUSTATBit19AlwaysZero(t *testing.T) {
	g := New(nil)
	g.stat |= statVertRes
	if g.ReadGPUSTAT()&statVertRes != 0 {
		t.Error("bit 19 leaked through ReadGPUSTAT")
	}
}

func TestReadGPUREADIsAlwaysZero(t *testing.T) {
	g := New(nil)
	if g.ReadGPUREAD() != 0 {
		t.Error("GPUREAD returned non-zero in the baseline")
	}
}

func TestCpuToVramBlitDiscardsPayload(t *testing.T) {
	g := New(nil)
	g.WriteGP0(0xA0_000000) // CPU->VRAM blit command
	g.WriteGP0(0)           // dest coord
	g.WriteGP0(0x0002_0002) // width=2, height=2 -> ceil(4/2)=2 payload words
	g.WriteGP0(0xdeadbeef)
	if g.phase != phaseLoadData {
		t.Fatalf("phase after one of two payload words = %v, want LoadData", g.phase)
	}
	g.WriteGP0(0xcafef00d)
	if g.phase != phaseReady {
		t.Errorf("phase after final payload word = %v, want Ready", g.phase)
	}
}

func TestStepReportsFrameCompleteOnce(t *testing.T) {
	g := New(nil)
	if g.Step(frameCycles - 1) {
		t.Fatal("Step reported frame complete one cycle early")
	}
	if !g.Step(1) {
		t.Error("Step did not report frame complete at frameCycles")
	}
}

func TestSoftResetClearsInProgressCommand(t *testing.T) {
	g := New(nil)
	g.WriteGP0(0x30_000000) // start a shaded triangle, leave it in progress
	g.WriteGP1(0x00_000000) // soft reset
	if g.phase != phaseReady {
		t.Error("soft reset did not return the command phase to Ready")
	}
	if g.ReadGPUSTAT()&statDisplayOff == 0 {
		t.Error("soft reset did not disable the display")
	}
}
