package fan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/fan"
)

func TestParseCurve(t *testing.T) {
	curve, err := fan.ParseCurve([]byte(`[{"temp":30,"fan":0},{"temp":85,"fan":100}]`))
	require.NoError(t, err)

	require.Len(t, curve, 2)
	assert.Equal(t, uint8(30), curve[0].Temp)
	assert.Equal(t, uint8(100), curve[1].Fan)
}

func TestParseCurveRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `[{`},
		{"wrong shape", `{"temp":30}`},
		{"empty curve", `[]`},
		{"temperature too high", `[{"temp":111,"fan":50}]`},
		{"fan speed too high", `[{"temp":50,"fan":101}]`},
		{"equal temperatures", `[{"temp":50,"fan":10},{"temp":50,"fan":20}]`},
		{"decreasing temperatures", `[{"temp":60,"fan":10},{"temp":40,"fan":20}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fan.ParseCurve([]byte(tc.payload))
			assert.True(t, errors.HasCode(err, fan.ErrInvalidCurve), "Expected invalid curve error, got %v", err)
		})
	}
}

func TestSpeedAtInterpolates(t *testing.T) {
	curve := fan.DefaultCurve()

	cases := []struct {
		name string
		temp float64
		want uint8
	}{
		{"below first point", 20, 0},
		{"at first point", 30, 0},
		{"between points", 40, 18},
		{"at middle point", 65, 50},
		{"upper segment", 80, 88},
		{"at last point", 85, 100},
		{"above last point", 95, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, curve.SpeedAt(tc.temp))
		})
	}
}

func TestSpeedAtSinglePoint(t *testing.T) {
	curve := fan.Curve{{Temp: 50, Fan: 40}}

	assert.Equal(t, uint8(40), curve.SpeedAt(10))
	assert.Equal(t, uint8(40), curve.SpeedAt(50))
	assert.Equal(t, uint8(40), curve.SpeedAt(90))
}

func TestDefaultCurveValid(t *testing.T) {
	require.NoError(t, fan.DefaultCurve().Validate())

	curve, err := fan.ParseCurve(fan.DefaultCurveJSON())
	require.NoError(t, err)
	assert.Equal(t, fan.DefaultCurve(), curve)
}
