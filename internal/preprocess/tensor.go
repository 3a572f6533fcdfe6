package preprocess

// Tensor is a prepared model input: float32 values laid out NHWC with an
// explicit batch dimension of 1. Tensors are produced fresh per request and
// never shared.
type Tensor struct {
	Data []float32
	// Dims is [batch, height, width, channels].
	Dims [4]int64
}

func (t *Tensor) Height() int { return int(t.Dims[1]) }
func (t *Tensor) Width() int  { return int(t.Dims[2]) }

// At returns the value at (y, x, c). Bounds are the caller's problem.
func (t *Tensor) At(y, x, c int) float32 {
	w := int(t.Dims[2])
	ch := int(t.Dims[3])
	return t.Data[(y*w+x)*ch+c]
}
