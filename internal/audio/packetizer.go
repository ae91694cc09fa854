package audio

// Packetizer never emits a remainder shorter than one packet.
type Packetizer struct {
	size int
	acc  []float32
}

func NewPacketizer(size int) *Packetizer {
	return &Packetizer{
		size: size,
		acc:  make([]float32, 0, size*2),
	}
}

func (p *Packetizer) Size() int {
	return p.size
}

func (p *Packetizer) Buffered() int {
	return len(p.acc)
}

func (p *Packetizer) Write(samples []float32, emit func([]float32)) {
	p.acc = append(p.acc, samples...)
	off := 0
	for len(p.acc)-off >= p.size {
		emit(p.acc[off : off+p.size])
		off += p.size
	}
	if off > 0 {
		n := copy(p.acc, p.acc[off:])
		p.acc = p.acc[:n]
	}
}

func (p *Packetizer) Reset() {
	p.acc = p.acc[:0]
}
