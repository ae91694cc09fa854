package audio

import "fmt"

// Resampler decimates by picking the sample at floor(i*inRate/outRate).
type Resampler struct {
	inRate  int
	outRate int
}

func NewResampler(inRate, outRate int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: in=%d out=%d", inRate, outRate)
	}
	if outRate > inRate {
		return nil, fmt.Errorf("upsampling is not supported: in=%d out=%d", inRate, outRate)
	}
	return &Resampler{inRate: inRate, outRate: outRate}, nil
}

func (r *Resampler) Ratio() float64 {
	return float64(r.inRate) / float64(r.outRate)
}

func (r *Resampler) OutputLen(n int) int {
	return n * r.outRate / r.inRate
}

func (r *Resampler) Process(dst []float32, frame []float32) []float32 {
	n := r.OutputLen(len(frame))
	for i := 0; i < n; i++ {
		dst = append(dst, frame[i*r.inRate/r.outRate])
	}
	return dst
}
