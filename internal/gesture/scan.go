package gesture

// refractory suppresses evaluation for a few samples after a trigger so the
// rebound of a hand decelerating is not read as motion the other way.
type refractory struct {
	length    int
	remaining int
}

// tick advances one sample. It must run before ready on every sample.
func (r *refractory) tick() {
	if r.remaining > 0 {
		r.remaining--
	}
}

func (r *refractory) ready() bool {
	return r.remaining == 0
}

func (r *refractory) arm() {
	r.remaining = r.length
}

// axis describes one directional sub-scan over a single channel.
type axis struct {
	label   Label
	channel func(Buffer) []float64
	sign    float64 // -1 reads the channel for the opposite direction
	gravity bool    // subtract ZOffset before thresholding
}

func channelAX(b Buffer) []float64 { return b.AX }
func channelAY(b Buffer) []float64 { return b.AY }
func channelAZ(b Buffer) []float64 { return b.AZ }

// linearAxes is also the order candidates are appended in, which decides
// ties between candidates at the same index.
var linearAxes = []axis{
	{label: Right, channel: channelAX, sign: 1},
	{label: Forward, channel: channelAY, sign: 1},
	{label: Up, channel: channelAZ, sign: 1, gravity: true},
	{label: Left, channel: channelAX, sign: -1},
	{label: Backward, channel: channelAY, sign: -1},
	{label: Down, channel: channelAZ, sign: -1, gravity: true},
}

// Scan runs the flip detector and the six linear-axis detectors over buf and
// returns every candidate they emit. buf is not modified.
func Scan(buf Buffer, p Params) ([]Candidate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return []Candidate{}, nil
	}

	cands := scanFlips(buf.AZ, p)
	for _, ax := range linearAxes {
		cands = append(cands, scanAxis(buf, ax, p)...)
	}
	return cands, nil
}

// scanFlips reports a flip where AZ turns negative after having been seen
// non-negative. Both neighbours must be non-positive too, so samples within
// one position of either end of the buffer are never evaluated.
func scanFlips(az []float64, p Params) []Candidate {
	var cands []Candidate
	r := refractory{length: p.BufferOffset}
	startedUp := false
	n := len(az)

	for i, z := range az {
		r.tick()
		if !r.ready() {
			continue
		}
		if z >= 0 {
			startedUp = true
			continue
		}
		if !startedUp {
			continue
		}
		if i-1 <= 0 || i+1 >= n-1 {
			continue
		}
		if az[i-1] > 0 || az[i+1] > 0 {
			continue
		}
		cands = append(cands, Candidate{Label: Flip, Index: i, Magnitude: 0})
		startedUp = false
		r.arm()
	}
	return cands
}

// scanAxis emits a candidate for every excursion above the sensitivity in
// the axis direction. Excursions the other way only arm the refractory
// counter: they are treated as rebound and never reported.
func scanAxis(buf Buffer, ax axis, p Params) []Candidate {
	var cands []Candidate
	r := refractory{length: p.BufferOffset}

	for i, raw := range ax.channel(buf) {
		r.tick()
		if !r.ready() {
			continue
		}
		v := raw
		if ax.gravity {
			v -= p.ZOffset
		}
		v *= ax.sign

		switch {
		case v < -p.Sensitivity:
			r.arm()
		case v > p.Sensitivity:
			cands = append(cands, Candidate{Label: ax.label, Index: i, Magnitude: v})
			r.arm()
		}
	}
	return cands
}
