package raster

// UnpackLuma1 expands 1-bit-per-pixel rows into one sample per pixel.
//
// Each row occupies ceil(width/8) bytes, most significant bit first. A set
// bit becomes 255 and a clear bit 0. The last byte of a row contributes only
// width%8 bits when that remainder is nonzero; padding bits are dropped, so
// the result always holds rows*width samples. A trailing partial row is
// ignored.
func UnpackLuma1(packed []byte, width int) []byte {
	if width <= 0 {
		return nil
	}

	stride := (width + 7) / 8
	rows := len(packed) / stride
	out := make([]byte, 0, rows*width)

	for r := 0; r < rows; r++ {
		row := packed[r*stride : (r+1)*stride]
		for i, b := range row {
			bits := 8
			if i == stride-1 && width%8 != 0 {
				bits = width % 8
			}
			for j := 0; j < bits; j++ {
				if b&(0x80>>j) != 0 {
					out = append(out, 0xff)
				} else {
					out = append(out, 0)
				}
			}
		}
	}

	return out
}
