package canvas

import "testing"

const black int32 = -16777216

// painted returns the set of coordinates whose pixel differs from White.
func painted(r *Raster) map[[2]int]bool {
	set := make(map[[2]int]bool)
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if r.At(x, y) != White {
				set[[2]int{x, y}] = true
			}
		}
	}
	return set
}

func expectPainted(t *testing.T, r *Raster, want [][2]int) {
	t.Helper()
	got := painted(r)
	if len(got) != len(want) {
		t.Fatalf("expected %d painted pixels, got %d: %v", len(want), len(got), got)
	}
	for _, p := range want {
		if !got[p] {
			t.Fatalf("expected (%d,%d) painted, it was not", p[0], p[1])
		}
	}
}

func TestSegmentWidthOnePoint(t *testing.T) {
	r := NewRaster(5, 5)
	SegmentEdit{Board: "b", User: "u", X1: 2, Y1: 2, X2: 2, Y2: 2, Color: black, Width: 1}.Apply(r)

	expectPainted(t, r, [][2]int{{2, 2}})
}

func TestSegmentDegenerateDisk(t *testing.T) {
	// Width 2 paints the plus shape (distance² <= 1), width 3 the full
	// 3x3 block (distance² <= 2.25).
	r := NewRaster(5, 5)
	SegmentEdit{X1: 2, Y1: 2, X2: 2, Y2: 2, Color: black, Width: 2}.Apply(r)
	expectPainted(t, r, [][2]int{{2, 2}, {1, 2}, {3, 2}, {2, 1}, {2, 3}})

	r = NewRaster(5, 5)
	SegmentEdit{X1: 2, Y1: 2, X2: 2, Y2: 2, Color: black, Width: 3}.Apply(r)
	var block [][2]int
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			block = append(block, [2]int{x, y})
		}
	}
	expectPainted(t, r, block)
}

func TestSegmentHorizontalWidthOne(t *testing.T) {
	r := NewRaster(10, 10)
	SegmentEdit{X1: 2, Y1: 5, X2: 7, Y2: 5, Color: black, Width: 1}.Apply(r)

	want := [][2]int{{2, 5}, {3, 5}, {4, 5}, {5, 5}, {6, 5}, {7, 5}}
	expectPainted(t, r, want)
}

func TestSegmentDiagonalWidthOne(t *testing.T) {
	// Pixels exactly on the diagonal have zero distance; their neighbors
	// are sqrt(1/2) away, which exceeds radius 0.5.
	r := NewRaster(5, 5)
	SegmentEdit{X1: 0, Y1: 0, X2: 4, Y2: 4, Color: black, Width: 1}.Apply(r)

	want := [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}
	expectPainted(t, r, want)
}

func TestSegmentUsesColor(t *testing.T) {
	r := NewRaster(3, 3)
	SegmentEdit{X1: 1, Y1: 1, X2: 1, Y2: 1, Color: -65536, Width: 1}.Apply(r)

	if r.At(1, 1) != 0xFFFF0000 {
		t.Fatalf("expected red pixel, got %#x", r.At(1, 1))
	}
}

func TestSegmentClipsToRaster(t *testing.T) {
	// Only the in-raster part of the stroke lands; nothing panics.
	r := NewRaster(4, 4)
	SegmentEdit{X1: 0, Y1: 2, X2: 20, Y2: 2, Color: black, Width: 1}.Apply(r)

	want := [][2]int{{0, 2}, {1, 2}, {2, 2}, {3, 2}}
	expectPainted(t, r, want)
}

func TestSegmentEntirelyOffRaster(t *testing.T) {
	r := NewRaster(4, 4)
	SegmentEdit{X1: 100, Y1: 100, X2: 120, Y2: 100, Color: black, Width: 5}.Apply(r)

	expectPainted(t, r, nil)
}

func TestSegmentRoundCapExtendsPastEndpoint(t *testing.T) {
	// Width 4 gives radius 2: the cap reaches 2px beyond each endpoint
	// along the stroke axis.
	r := NewRaster(20, 9)
	SegmentEdit{X1: 5, Y1: 4, X2: 10, Y2: 4, Color: black, Width: 4}.Apply(r)

	got := painted(r)
	if !got[[2]int{3, 4}] || !got[[2]int{12, 4}] {
		t.Fatalf("expected round caps at (3,4) and (12,4), painted: %v", got)
	}
	if got[[2]int{2, 4}] || got[[2]int{13, 4}] {
		t.Fatalf("cap extends too far along the axis")
	}
	// 2px above the body is on the radius boundary and included.
	if !got[[2]int{7, 2}] || got[[2]int{7, 1}] {
		t.Fatalf("stroke body has wrong thickness")
	}
}

func TestFillRepaintsWholeRaster(t *testing.T) {
	r := NewRaster(31, 17)
	FillEdit{Board: "b", User: "u", X: 0, Y: 0, Color: black}.Apply(r)

	want := Opaque(black)
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if r.At(x, y) != want {
				t.Fatalf("expected (%d,%d) filled, got %#x", x, y, r.At(x, y))
			}
		}
	}
}

func TestFillIsIdempotent(t *testing.T) {
	build := func(applies int) *Raster {
		r := NewRaster(12, 12)
		SegmentEdit{X1: 0, Y1: 6, X2: 11, Y2: 6, Color: black, Width: 2}.Apply(r)
		for i := 0; i < applies; i++ {
			FillEdit{X: 0, Y: 0, Color: -65536}.Apply(r)
		}
		return r
	}

	once := build(1)
	twice := build(2)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if once.At(x, y) != twice.At(x, y) {
				t.Fatalf("double fill diverged at (%d,%d): %#x vs %#x", x, y, once.At(x, y), twice.At(x, y))
			}
		}
	}
}

func TestFillSameColorTerminates(t *testing.T) {
	// Filling with the origin color must be a no-op, not an endless
	// rescan of already-correct pixels.
	r := NewRaster(8, 8)
	FillEdit{X: 3, Y: 3, Color: -1}.Apply(r)

	expectPainted(t, r, nil)
}

func TestFillStopsAtBoundary(t *testing.T) {
	// A vertical wall splits the raster; fill on the left side must not
	// leak to the right.
	r := NewRaster(9, 5)
	SegmentEdit{X1: 4, Y1: 0, X2: 4, Y2: 4, Color: black, Width: 1}.Apply(r)
	FillEdit{X: 0, Y: 0, Color: -65536}.Apply(r)

	red := Opaque(-65536)
	for y := 0; y < 5; y++ {
		for x := 0; x < 4; x++ {
			if r.At(x, y) != red {
				t.Fatalf("expected left side filled at (%d,%d)", x, y)
			}
		}
		for x := 5; x < 9; x++ {
			if r.At(x, y) != White {
				t.Fatalf("fill leaked across the wall to (%d,%d)", x, y)
			}
		}
	}
}

func TestFillIsFourConnected(t *testing.T) {
	// Two black squares touching only at a corner: filling one must not
	// reach the other through the diagonal.
	r := NewRaster(4, 4)
	r.Set(0, 0, Opaque(black))
	r.Set(1, 0, Opaque(black))
	r.Set(0, 1, Opaque(black))
	r.Set(1, 1, Opaque(black))
	r.Set(2, 2, Opaque(black))
	r.Set(3, 2, Opaque(black))
	r.Set(2, 3, Opaque(black))
	r.Set(3, 3, Opaque(black))

	FillEdit{X: 0, Y: 0, Color: -65536}.Apply(r)

	if r.At(1, 1) != Opaque(-65536) {
		t.Fatalf("seed square not filled")
	}
	if r.At(2, 2) != Opaque(black) {
		t.Fatalf("fill crossed a diagonal-only connection")
	}
}

func TestFillSeedOutOfBounds(t *testing.T) {
	r := NewRaster(4, 4)
	FillEdit{X: 10, Y: 10, Color: black}.Apply(r)

	expectPainted(t, r, nil)
}

func TestFillInteriorRegion(t *testing.T) {
	// Fill inside a drawn ring: the interior changes, the ring and the
	// outside do not.
	r := NewRaster(11, 11)
	ring := Opaque(black)
	for i := 2; i <= 8; i++ {
		r.Set(i, 2, ring)
		r.Set(i, 8, ring)
		r.Set(2, i, ring)
		r.Set(8, i, ring)
	}

	FillEdit{X: 5, Y: 5, Color: -16711936}.Apply(r)

	green := Opaque(-16711936)
	if r.At(5, 5) != green || r.At(3, 3) != green || r.At(7, 7) != green {
		t.Fatalf("interior not filled")
	}
	if r.At(2, 2) != ring {
		t.Fatalf("ring repainted")
	}
	if r.At(0, 0) != White || r.At(10, 10) != White {
		t.Fatalf("fill leaked outside the ring")
	}
}
