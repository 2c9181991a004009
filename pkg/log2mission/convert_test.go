package log2mission

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/otx"
	"etx2mission/pkg/types"
)

func gpsRecord(p types.GeoPoint, alt string) otx.Record {
	return otx.NewRecord(map[string]string{
		"GPS":       fmt.Sprintf("%.7f %.7f", p.Lat, p.Lon),
		"Alt(m)":    alt,
		"GSpd(kmh)": "36",
	})
}

func trackRecords(n int, step float64) []otx.Record {
	recs := make([]otx.Record, n)
	for i := range recs {
		recs[i] = gpsRecord(geo.Destination(origin, 0, float64(i)*step), "120")
	}
	return recs
}

var testOpts = Options{
	Generator:   "etx2mission",
	Version:     "test",
	AbsoluteAlt: true,
	SavedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestConvert(t *testing.T) {
	t.Parallel()
	c, err := Convert(trackRecords(200, 10), testConfig(10, 20), testOpts)
	require.NoError(t, err)
	assert.Equal(t, 200, c.Records)
	assert.Equal(t, 200, c.Samples)
	assert.Zero(t, c.Skipped())
	require.NotNil(t, c.Document)
	assert.LessOrEqual(t, c.Document.Len(), 20)
	assert.Equal(t, 1000, c.Document.Waypoints()[0].Speed)
	assert.Equal(t, 120, c.Document.Waypoints()[0].Alt)

	m := c.Summary()
	assert.Contains(t, m["Records"], "200 (0 skipped)")
	assert.Contains(t, m["Mission"], "spacing")
	assert.Contains(t, m["Legs"], "mean")
	assert.Contains(t, m["Extent"], " to ")
	assert.NotContains(t, m, "Warning")

	b1, err := c.Document.Bytes()
	require.NoError(t, err)
	c2, err := Convert(trackRecords(200, 10), testConfig(10, 20), testOpts)
	require.NoError(t, err)
	b2, err := c2.Document.Bytes()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestConvertNoTelemetry(t *testing.T) {
	t.Parallel()
	recs := []otx.Record{
		otx.NewRecord(map[string]string{"GPS": "0 0", "Alt(m)": "10"}),
		otx.NewRecord(map[string]string{"GPS": "0 0", "Alt(m)": "10"}),
	}
	c, err := Convert(recs, testConfig(100, 10), testOpts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTelemetry))
	assert.Nil(t, c.Document)
	assert.Equal(t, 2, c.Skipped())

	_, err = Convert(nil, testConfig(100, 10), testOpts)
	assert.ErrorIs(t, err, ErrNoTelemetry)
}

func TestConvertSkipsBadPosition(t *testing.T) {
	t.Parallel()
	recs := trackRecords(10, 100)
	recs = append(recs[:5], append([]otx.Record{otx.NewRecord(map[string]string{"GPS": "200 0", "Alt(m)": "10"})}, recs[5:]...)...)
	c, err := Convert(recs, testConfig(50, 100), testOpts)
	require.NoError(t, err)
	assert.Equal(t, 11, c.Records)
	assert.Equal(t, 10, c.Samples)
	assert.Equal(t, 1, c.Skipped())
	assert.Equal(t, 10, c.Document.Len())
}

func TestConvertRDP(t *testing.T) {
	t.Parallel()
	opts := testOpts
	opts.Strategy = StrategyRDP
	c, err := Convert(trackRecords(50, 20), testConfig(100, 10), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Document.Len())
	assert.Contains(t, c.Summary()["Mission"], "rdp")

	opts.Strategy = "zigzag"
	_, err = Convert(trackRecords(50, 20), testConfig(100, 10), opts)
	assert.Error(t, err)
}

func TestConvertOverBudgetSummary(t *testing.T) {
	t.Parallel()
	c, err := Convert(trackRecords(3, 7000), testConfig(100, 1), testOpts)
	require.NoError(t, err)
	assert.True(t, c.Result.OverBudget)
	assert.Contains(t, c.Summary(), "Warning")
}

func TestParseStrategy(t *testing.T) {
	s, ok := ParseStrategy("")
	assert.True(t, ok)
	assert.Equal(t, StrategySpacing, s)
	s, ok = ParseStrategy("RDP")
	assert.True(t, ok)
	assert.Equal(t, StrategyRDP, s)
	_, ok = ParseStrategy("fast")
	assert.False(t, ok)
}

func TestMissionName(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "mission_240501_1407.mission", MissionName("", now))
	assert.Equal(t, "mission_240501_1407.mission", MissionName("  ", now))
	assert.Equal(t, "alps.mission", MissionName("alps", now))
	assert.Equal(t, "alps.mission", MissionName("alps.mission", now))
	assert.Equal(t, "alps.MISSION", MissionName("alps.MISSION", now))
}

func TestOutputName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Model-2024-05-01.mission", OutputName("", "/tmp/logs/Model-2024-05-01.csv", 1, 2))
	assert.Equal(t, "alps.mission", OutputName("alps", "/tmp/a.csv", 1, 1))
	assert.Equal(t, "alps.2.mission", OutputName("alps.mission", "/tmp/a.csv", 2, 3))
}
