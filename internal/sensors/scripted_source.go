package sensors

import (
	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/imu"
)

// restSample is the wand lying flat and still.
var restSample = imu.Sample{Az: imu.StandardGravity}

type scriptedSource struct {
	samples []imu.Sample
	pos     int
}

// NewScriptedSource creates a source that plays a synthetic motion for each
// gesture in order, with rest samples before, between and after them. Once
// the script is exhausted it keeps returning rest samples.
func NewScriptedSource(moves []gesture.Label, restBetween int) imu.SampleSource {
	if restBetween < 4 {
		restBetween = 4
	}
	var samples []imu.Sample
	samples = appendRest(samples, restBetween)
	for _, m := range moves {
		samples = append(samples, waveform(m)...)
		samples = appendRest(samples, restBetween)
	}
	return &scriptedSource{samples: samples}
}

// ScriptLen returns how many samples it takes to play moves completely.
func ScriptLen(moves []gesture.Label, restBetween int) int {
	if restBetween < 4 {
		restBetween = 4
	}
	n := restBetween
	for _, m := range moves {
		n += len(waveform(m)) + restBetween
	}
	return n
}

func (s *scriptedSource) Next() (imu.Sample, error) {
	if s.pos >= len(s.samples) {
		return restSample, nil
	}
	out := s.samples[s.pos]
	s.pos++
	return out, nil
}

func appendRest(samples []imu.Sample, n int) []imu.Sample {
	for i := 0; i < n; i++ {
		samples = append(samples, restSample)
	}
	return samples
}

// waveform returns the acceleration trace of one gesture: a push in the
// direction of motion followed by the rebound as the hand stops.
func waveform(l gesture.Label) []imu.Sample {
	g := imu.StandardGravity
	switch l {
	case gesture.Right:
		return []imu.Sample{{Ax: 6.5, Az: g}, {Ax: -6, Az: g}, {Ax: -2, Az: g}}
	case gesture.Left:
		return []imu.Sample{{Ax: -6.5, Az: g}, {Ax: 6, Az: g}, {Ax: 2, Az: g}}
	case gesture.Forward:
		return []imu.Sample{{Ay: 6.5, Az: g}, {Ay: -6, Az: g}, {Ay: -2, Az: g}}
	case gesture.Backward:
		return []imu.Sample{{Ay: -6.5, Az: g}, {Ay: 6, Az: g}, {Ay: 2, Az: g}}
	case gesture.Up:
		return []imu.Sample{{Az: g + 6.5}, {Az: g - 6}, {Az: g - 2}}
	case gesture.Down:
		return []imu.Sample{{Az: g - 6.5}, {Az: g + 6}, {Az: g + 2}}
	case gesture.Flip:
		// Roll over around X, hold upside down, roll back.
		return []imu.Sample{
			{Az: 5, Gx: 3},
			{Az: 0, Gx: 3},
			{Az: -g},
			{Az: -g},
			{Az: -g},
			{Az: 0, Gx: -3},
			{Az: 5, Gx: -3},
		}
	default:
		return nil
	}
}
