package audio

import (
	"encoding/binary"
	"math"
)

// EncodeSample scales negatives by 32768 and positives by 32767.
func EncodeSample(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	if s <= 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

func Encode(src []float32) []int16 {
	out := make([]int16, len(src))
	for i, s := range src {
		out[i] = EncodeSample(s)
	}
	return out
}

type Packet struct {
	Samples []int16
}

func (p Packet) Len() int {
	return len(p.Samples) * 2
}

func (p Packet) Bytes() []byte {
	buf := make([]byte, len(p.Samples)*2)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
