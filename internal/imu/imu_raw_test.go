package imu

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestScaled(t *testing.T) {
	tests := []struct {
		name       string
		raw        IMURaw
		accelRange byte
		gyroRange  byte
		want       Sample
	}{
		{
			name: "one g on z at 2g range",
			raw:  IMURaw{Az: 16384},
			want: Sample{Az: StandardGravity},
		},
		{
			name:       "half g on x at 4g range",
			raw:        IMURaw{Ax: 4096},
			accelRange: 1,
			want:       Sample{Ax: StandardGravity / 2},
		},
		{
			name:       "negative y at 16g range",
			raw:        IMURaw{Ay: -2048},
			accelRange: 3,
			want:       Sample{Ay: -StandardGravity},
		},
		{
			name: "90 deg/s on gyro x at 250 range",
			raw:  IMURaw{Gx: 131 * 180 / 2},
			want: Sample{Gx: math.Pi / 2},
		},
		{
			name:       "invalid selectors fall back",
			raw:        IMURaw{Az: 16384, Gz: 131},
			accelRange: 9,
			gyroRange:  7,
			want:       Sample{Az: StandardGravity, Gz: math.Pi / 180},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.raw.Scaled(tt.accelRange, tt.gyroRange)
			if !approx(got.Ax, tt.want.Ax) || !approx(got.Ay, tt.want.Ay) || !approx(got.Az, tt.want.Az) ||
				!approx(got.Gx, tt.want.Gx) || !approx(got.Gy, tt.want.Gy) || !approx(got.Gz, tt.want.Gz) {
				t.Errorf("Scaled = %+v, want %+v", got, tt.want)
			}
		})
	}
}
