package thermal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nccore/internal/thermal/hwio"
)

func baseSensorConfig() SensorConfig {
	return SensorConfig{
		SamplesPerReading: 4,
		VarianceThreshold: 50,
		Retries:           2,
		DisconnectTemp:    400,
		NoPowerTemp:       -10,
		Slope:             1,
		Offset:            0,
	}
}

func TestSensorOffReturnsHotSentinel(t *testing.T) {
	s := NewSensor(baseSensorConfig())
	assert.Equal(t, HotSentinelTemp, s.Temperature())
}

func TestSensorOffIdempotent(t *testing.T) {
	s := NewSensor(baseSensorConfig())
	s.Off()
	s.Off()
	assert.Equal(t, SensorOff, s.State())
}

func TestSensorCompletesInOneTickWhenSamplesPerReadingIsOne(t *testing.T) {
	cfg := baseSensorConfig()
	cfg.SamplesPerReading = 1
	s := NewSensor(cfg)
	s.StartReading()
	adc := &hwio.SoftADC{Samples: []float64{150}}
	err := s.Sample(adc, 0)
	require.NoError(t, err)
	assert.Equal(t, SensorHasData, s.State())
	assert.Equal(t, SensorCodeReadingComplete, s.Code())
	assert.Equal(t, 150.0, s.Temperature())
}

func TestSensorClassifiesDisconnected(t *testing.T) {
	cfg := baseSensorConfig()
	cfg.SamplesPerReading = 1
	s := NewSensor(cfg)
	s.StartReading()
	adc := &hwio.SoftADC{Samples: []float64{1000}}
	require.NoError(t, s.Sample(adc, 0))
	assert.Equal(t, SensorNoData, s.State())
	assert.Equal(t, SensorCodeReadingFailedDisconnected, s.Code())
	assert.Equal(t, HotSentinelTemp, s.Temperature())
}

func TestSensorClassifiesNoPower(t *testing.T) {
	cfg := baseSensorConfig()
	cfg.SamplesPerReading = 1
	s := NewSensor(cfg)
	s.StartReading()
	adc := &hwio.SoftADC{Samples: []float64{-50}}
	require.NoError(t, s.Sample(adc, 0))
	assert.Equal(t, SensorNoData, s.State())
	assert.Equal(t, SensorCodeReadingFailedNoPower, s.Code())
}

func TestSensorVarianceExhaustionReturnsHotSentinel(t *testing.T) {
	cfg := baseSensorConfig()
	cfg.SamplesPerReading = 4
	cfg.VarianceThreshold = 1
	cfg.Retries = 2
	s := NewSensor(cfg)
	s.StartReading()
	// First sample establishes previous_temp unconditionally.
	adc := &hwio.SoftADC{Samples: []float64{100, 200, 200, 200}}
	require.NoError(t, s.Sample(adc, 0))
	// Second sample jumps far beyond variance on every retry attempt.
	require.NoError(t, s.Sample(adc, 0))
	assert.Equal(t, SensorNoData, s.State())
	assert.Equal(t, SensorCodeReadingFailedBadReadings, s.Code())
	assert.Equal(t, HotSentinelTemp, s.Temperature())
}

func TestSensorSampleCountStaysInBounds(t *testing.T) {
	cfg := baseSensorConfig()
	s := NewSensor(cfg)
	s.StartReading()
	adc := &hwio.SoftADC{Samples: []float64{100, 100, 100, 100}}
	for i := 0; i < cfg.SamplesPerReading; i++ {
		require.NoError(t, s.Sample(adc, 0))
		assert.LessOrEqual(t, s.samples, cfg.SamplesPerReading)
		assert.GreaterOrEqual(t, s.samples, 0)
	}
}
