package kmlgen

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etx2mission/pkg/mission"
	"etx2mission/pkg/types"
)

func testDocument() *mission.Document {
	wps := []types.Waypoint{
		{No: 1, Point: types.GeoPoint{Lat: 45.0, Lon: 7.0}, Alt: 50, Speed: 1000},
		{No: 2, Point: types.GeoPoint{Lat: 45.001, Lon: 7.0}, Alt: 100, Speed: 1000},
		{No: 3, Point: types.GeoPoint{Lat: 45.002, Lon: 7.001}, Alt: 150, Speed: 1200, Terminal: true},
	}
	return mission.NewDocument(wps, "etx2mission", "", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), true)
}

func TestGenerateMissionKML(t *testing.T) {
	t.Parallel()
	d := GenerateMissionKML(testDocument(), KMLOptions{Name: "alps.mission"})
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, d, false))
	s := buf.String()
	assert.Contains(t, s, "<kml")
	for _, want := range []string{
		"<name>alps.mission</name>",
		"<name>WP 1</name>",
		"<name>WP 3</name>",
		"#styleTerminal",
		"styleGrad000",
		"<LineString>",
		"absolute",
		"3 waypoints, generated by etx2mission",
	} {
		assert.Contains(t, s, want)
	}
}

func TestWriteKMZ(t *testing.T) {
	t.Parallel()
	d := GenerateMissionKML(testDocument(), KMLOptions{Gradient: "red"})
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, d, true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestGradIndex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, gradIndex(10, 50, 150))
	assert.Equal(t, NUM_GRAD, gradIndex(200, 50, 150))
	assert.Equal(t, NUM_GRAD/2, gradIndex(100, 50, 150))
	assert.Equal(t, NUM_GRAD/2, gradIndex(100, 100, 100))
}

func TestGradset(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"red", "rdylgn", "ylorrd", ""} {
		cols := gradset(name)
		assert.Len(t, cols, NUM_GRAD+1)
		assert.NotEqual(t, cols[0], cols[NUM_GRAD], name)
	}
}

func TestGenKmlName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alps.kmz", GenKmlName("/tmp/alps.mission", 0, false))
	assert.Equal(t, "alps.kml", GenKmlName("alps.mission", 0, true))
	assert.Equal(t, "alps.2.kml", GenKmlName("alps.mission", 2, true))
}
