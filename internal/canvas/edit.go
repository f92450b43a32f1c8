package canvas

// Edit is one immutable drawing operation recorded against a board. The two
// implementations are SegmentEdit and FillEdit; code that needs to
// distinguish them switches on the concrete type.
type Edit interface {
	// Apply renders the edit onto r, mutating it in place.
	Apply(r *Raster)

	// BoardName returns the board the edit belongs to.
	BoardName() string
}

// SegmentEdit is a stroke from (X1, Y1) to (X2, Y2) with round caps and
// joins. Color is the signed ARGB wire value; Width is the stroke diameter
// in pixels.
type SegmentEdit struct {
	Board string
	User  string
	X1    int
	Y1    int
	X2    int
	Y2    int
	Color int32
	Width int
}

// BoardName returns the board the segment was drawn on.
func (e SegmentEdit) BoardName() string { return e.Board }

// Apply paints every pixel whose squared distance to the segment is at most
// (Width/2)². The test is evaluated in exact integer arithmetic so that any
// two replays of the same edit paint identical pixels: for pixel p with
// v = p2-p1, w = p-p1, d = w·v, den = v·v, the pixel is inside the stroke
// capsule when
//
//	d <= 0:          4·|w|²           <= Width²        (round cap at p1)
//	d >= den:        4·|p-p2|²        <= Width²        (round cap at p2)
//	otherwise:       4·(|w|²·den-d²)  <= Width²·den    (perpendicular band)
//
// A degenerate segment (p1 == p2) is the den == 0 case and paints a disk of
// diameter Width. Pixels outside the raster are skipped.
func (e SegmentEdit) Apply(r *Raster) {
	if e.Width <= 0 {
		return
	}
	c := Opaque(e.Color)
	radius := e.Width/2 + 1

	minX := max(min(e.X1, e.X2)-radius, 0)
	maxX := min(max(e.X1, e.X2)+radius, r.Width()-1)
	minY := max(min(e.Y1, e.Y2)-radius, 0)
	maxY := min(max(e.Y1, e.Y2)+radius, r.Height()-1)

	vx := int64(e.X2 - e.X1)
	vy := int64(e.Y2 - e.Y1)
	den := vx*vx + vy*vy
	w2 := int64(e.Width) * int64(e.Width)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			wx := int64(x - e.X1)
			wy := int64(y - e.Y1)
			d := wx*vx + wy*vy

			var inside bool
			switch {
			case d <= 0 || den == 0:
				inside = 4*(wx*wx+wy*wy) <= w2
			case d >= den:
				ux := int64(x - e.X2)
				uy := int64(y - e.Y2)
				inside = 4*(ux*ux+uy*uy) <= w2
			default:
				inside = 4*((wx*wx+wy*wy)*den-d*d) <= w2*den
			}
			if inside {
				r.Set(x, y, c)
			}
		}
	}
}

// FillEdit is a 4-connected flood fill seeded at (X, Y) with Color.
type FillEdit struct {
	Board string
	User  string
	X     int
	Y     int
	Color int32
}

// BoardName returns the board the fill was applied to.
func (e FillEdit) BoardName() string { return e.Board }

// Apply repaints every pixel reachable from the seed through neighbors of
// the seed's original color, using a scanline sweep: each dequeued point is
// expanded rightward then leftward along its row, and every painted pixel
// enqueues its vertical neighbors that still hold the original color. A
// point may be enqueued more than once; later dequeues fail the color test
// and are skipped. An out-of-raster seed is a no-op, and so is filling with
// the seed's own color (scanning would otherwise never find a pixel left to
// paint, and never stop).
func (e FillEdit) Apply(r *Raster) {
	if !r.In(e.X, e.Y) {
		return
	}
	origin := r.At(e.X, e.Y)
	c := Opaque(e.Color)
	if c == origin {
		return
	}

	type point struct{ x, y int }
	queue := []point{{e.X, e.Y}}

	// Paints (x, y) and enqueues its vertical neighbors if they still
	// hold the origin color.
	paint := func(x, y int) {
		r.Set(x, y, c)
		if r.In(x, y+1) && r.At(x, y+1) == origin {
			queue = append(queue, point{x, y + 1})
		}
		if r.In(x, y-1) && r.At(x, y-1) == origin {
			queue = append(queue, point{x, y - 1})
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		for x := p.x; r.In(x, p.y) && r.At(x, p.y) == origin; x++ {
			paint(x, p.y)
		}
		for x := p.x - 1; r.In(x, p.y) && r.At(x, p.y) == origin; x-- {
			paint(x, p.y)
		}
	}
}
