package pixel

// NewBitmap builds a MonoImage from rows of text, one character per pixel.
// '#' and '1' mark lit pixels, any other character is off. The image is as
// wide as the longest row. Handy for declaring small icons in source.
func NewBitmap(rows ...string) *MonoImage {
	var w int
	for _, row := range rows {
		if len(row) > w {
			w = len(row)
		}
	}
	p := NewMonoImage(w, len(rows))
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			if row[x] == '#' || row[x] == '1' {
				p.Set(x, y, On)
			}
		}
	}
	return p
}
