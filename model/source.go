package model

import "image"

// Source produces colors one at a time in transmission order. A Source is
// consumed exactly once; after Next reports false it stays exhausted.
type Source interface {
	Next() (Color, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Color, bool)

func (f SourceFunc) Next() (Color, bool) { return f() }

type sliceSource struct {
	colors []Color
	pos    int
}

// Slice returns a Source over colors. The slice is not copied.
func Slice(colors ...Color) Source {
	return &sliceSource{colors: colors}
}

func (s *sliceSource) Next() (Color, bool) {
	if s.pos >= len(s.colors) {
		return Color{}, false
	}
	c := s.colors[s.pos]
	s.pos++
	return c, true
}

// Repeat produces c n times.
func Repeat(c Color, n int) Source {
	i := 0
	return SourceFunc(func() (Color, bool) {
		if i >= n {
			return Color{}, false
		}
		i++
		return c, true
	})
}

// FromImage walks img row by row, left to right.
func FromImage(img image.Image) Source {
	r := img.Bounds()
	x, y := r.Min.X, r.Min.Y
	return SourceFunc(func() (Color, bool) {
		if r.Empty() || y >= r.Max.Y {
			return Color{}, false
		}
		c := FromColor(img.At(x, y))
		x++
		if x >= r.Max.X {
			x = r.Min.X
			y++
		}
		return c, true
	})
}

// Collect appends every remaining color of src to dst.
func Collect(dst []Color, src Source) []Color {
	for {
		c, ok := src.Next()
		if !ok {
			return dst
		}
		dst = append(dst, c)
	}
}
