package predictor

import "github.com/jsukup/ratemybeard/internal/preprocess"

// resizeTensor bilinearly resamples an NHWC tensor to the given spatial
// dimensions. Used only by the shape-mismatch shim in Run; normal requests
// arrive already sized by the preprocessor.
func resizeTensor(t *preprocess.Tensor, outH, outW int) *preprocess.Tensor {
	inH, inW := t.Height(), t.Width()
	if inH == outH && inW == outW {
		return t
	}
	out := make([]float32, outH*outW*3)

	// Scale factors mapping output pixel centers back into the source grid.
	yScale := float64(inH-1) / float64(max(outH-1, 1))
	xScale := float64(inW-1) / float64(max(outW-1, 1))

	for y := 0; y < outH; y++ {
		sy := float64(y) * yScale
		y0 := int(sy)
		y1 := min(y0+1, inH-1)
		fy := float32(sy - float64(y0))
		for x := 0; x < outW; x++ {
			sx := float64(x) * xScale
			x0 := int(sx)
			x1 := min(x0+1, inW-1)
			fx := float32(sx - float64(x0))
			for c := 0; c < 3; c++ {
				top := t.At(y0, x0, c)*(1-fx) + t.At(y0, x1, c)*fx
				bot := t.At(y1, x0, c)*(1-fx) + t.At(y1, x1, c)*fx
				out[(y*outW+x)*3+c] = top*(1-fy) + bot*fy
			}
		}
	}
	return &preprocess.Tensor{
		Data: out,
		Dims: [4]int64{1, int64(outH), int64(outW), 3},
	}
}
