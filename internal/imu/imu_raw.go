package imu

import "math"

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Full-scale sensitivities of the MPU9250, indexed by the range selector (0-3).
var (
	accelLSBPerG   = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDegS = [4]float64{131, 65.5, 32.8, 16.4}
)

// IMURaw represents a single raw accel+gyro sample in sensor counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Sample is one reading in physical units, the form the gesture detector consumes.
type Sample struct {
	Ax float64 `json:"ax"` // m/s²
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // rad/s
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// Scaled converts raw counts to m/s² and rad/s for the given range selectors.
// Out-of-range selectors fall back to the most sensitive range.
func (r IMURaw) Scaled(accelRange, gyroRange byte) Sample {
	if int(accelRange) >= len(accelLSBPerG) {
		accelRange = 0
	}
	if int(gyroRange) >= len(gyroLSBPerDegS) {
		gyroRange = 0
	}
	a := StandardGravity / accelLSBPerG[accelRange]
	g := (math.Pi / 180) / gyroLSBPerDegS[gyroRange]

	return Sample{
		Ax: float64(r.Ax) * a,
		Ay: float64(r.Ay) * a,
		Az: float64(r.Az) * a,
		Gx: float64(r.Gx) * g,
		Gy: float64(r.Gy) * g,
		Gz: float64(r.Gz) * g,
	}
}

// SampleSource provides samples over time: the real IMU or a scripted
// simulation.
type SampleSource interface {
	Next() (Sample, error)
}
