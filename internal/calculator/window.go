package calculator

// window is a fixed-size rolling accumulator over the most recent values.
// It keeps a running sum and re-sums the buffer once per full cycle so
// floating-point drift stays bounded.
type window struct {
	buf     []float64
	idx     int
	count   int
	sum     float64
	nonzero int
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size)}
}

func (w *window) push(v float64) {
	if w.count == len(w.buf) {
		old := w.buf[w.idx]
		w.sum -= old
		if old != 0 {
			w.nonzero--
		}
	} else {
		w.count++
	}

	w.buf[w.idx] = v
	w.sum += v
	if v != 0 {
		w.nonzero++
	}
	w.idx = (w.idx + 1) % len(w.buf)

	if w.idx == 0 && w.full() {
		w.sum = 0
		for _, x := range w.buf {
			w.sum += x
		}
	}
}

func (w *window) full() bool { return w.count == len(w.buf) }

// mean is the arithmetic mean of a full window. A window holding only zeros
// reports exactly 0.
func (w *window) mean() float64 {
	if w.nonzero == 0 {
		return 0
	}
	return w.sum / float64(len(w.buf))
}
