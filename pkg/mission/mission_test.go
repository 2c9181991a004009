package mission

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etx2mission/pkg/types"
)

var stamp = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func testWaypoints() []types.Waypoint {
	return []types.Waypoint{
		{No: 1, Point: types.GeoPoint{Lat: 51.5, Lon: -0.12}, Alt: 100, Speed: 1000},
		{No: 2, Point: types.GeoPoint{Lat: 51.50123456789, Lon: -0.125}, Alt: 110, Speed: 694, Terminal: true},
	}
}

func TestDocumentWrite(t *testing.T) {
	t.Parallel()
	doc := NewDocument(testWaypoints(), "etx2mission", "1.2.3", stamp, true)
	b, err := doc.Bytes()
	require.NoError(t, err)
	s := string(b)

	assert.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`), s)
	for _, want := range []string{
		"\n<mission>\n",
		"\n  <version value=\"1.2.3\"/>\n",
		"\n  <mwp save-date=\"2025-01-02T03:04:05Z\" generator=\"etx2mission\"/>\n",
		`<missionitem no="1" action="WAYPOINT" lat="51.5000000" lon="-0.1200000" alt="100" parameter1="1000" parameter2="0" parameter3="1" flag="0"/>`,
		`<missionitem no="2" action="WAYPOINT" lat="51.5012346" lon="-0.1250000" alt="110" parameter1="694" parameter2="0" parameter3="1" flag="165"/>`,
		"</mission>",
	} {
		assert.Contains(t, s, want)
	}
	assert.Less(t, strings.Index(s, "<version"), strings.Index(s, "<mwp"))
	assert.Less(t, strings.Index(s, "<mwp"), strings.Index(s, "<missionitem"))
}

func TestDocumentIdempotent(t *testing.T) {
	t.Parallel()
	doc := NewDocument(testWaypoints(), "etx2mission", "", stamp, false)
	b1, err := doc.Bytes()
	require.NoError(t, err)
	b2, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	other := NewDocument(testWaypoints(), "etx2mission", "", stamp, false)
	b3, err := other.Bytes()
	require.NoError(t, err)
	assert.Equal(t, b1, b3)

	s := string(b1)
	assert.NotContains(t, s, "<version")
	assert.Contains(t, s, `parameter3="0"`)
}

func TestDocumentDoesNotAlias(t *testing.T) {
	wps := testWaypoints()
	doc := NewDocument(wps, "g", "", stamp, true)
	wps[0].Alt = 9999
	got := doc.Waypoints()
	assert.Equal(t, 100, got[0].Alt)
	got[1].Alt = 1
	assert.Equal(t, 110, doc.Waypoints()[1].Alt)
	assert.Equal(t, 2, doc.Len())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	doc := NewDocument(testWaypoints(), "etx2mission", "1.2.3", stamp, true)
	fn := filepath.Join(t.TempDir(), "test.mission")
	require.NoError(t, doc.WriteFile(fn))

	m, err := ReadMissionFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", m.Version.Value)
	assert.Equal(t, "etx2mission", m.Metadata.Generator)
	require.Len(t, m.MissionItems, 2)
	assert.Equal(t, uint8(TerminalFlag), m.MissionItems[1].Flag)

	back := m.Document()
	want := testWaypoints()
	want[1].Point = types.GeoPoint{Lat: 51.5012346, Lon: -0.125}
	if diff := cmp.Diff(want, back.Waypoints()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, back.AbsoluteAlt)
	assert.True(t, back.SavedAt.Equal(stamp))
}

func TestParseMissionSkipsNonGeo(t *testing.T) {
	t.Parallel()
	src := `<?xml version="1.0" encoding="UTF-8"?>
<mission>
  <mwp save-date="2025-01-02T03:04:05Z" generator="mwp"/>
  <missionitem no="1" action="WAYPOINT" lat="45.1" lon="7.1" alt="50" parameter1="0" parameter2="0" parameter3="0"/>
  <fwapproach no="8" index="1"/>
  <missionitem no="2" action="RTH" lat="0" lon="0" alt="0" parameter1="0" parameter2="0" parameter3="0" flag="165"/>
</mission>`
	m, err := ParseMission([]byte(src))
	require.NoError(t, err)
	assert.Len(t, m.MissionItems, 2)
	doc := m.Document()
	require.Equal(t, 1, doc.Len())
	assert.False(t, doc.AbsoluteAlt)
	assert.False(t, doc.Waypoints()[0].Terminal)
}

func TestParseMissionErrors(t *testing.T) {
	_, err := ParseMission([]byte("<gpx></gpx>"))
	assert.Error(t, err)
	_, err = ParseMission([]byte("<mission><missionitem no=\"x\"/></mission>"))
	assert.Error(t, err)
	_, err = ReadMissionFile(filepath.Join(t.TempDir(), "missing.mission"))
	assert.True(t, os.IsNotExist(err))
}

func TestGeoJSON(t *testing.T) {
	t.Parallel()
	doc := NewDocument(testWaypoints(), "etx2mission", "", stamp, true)
	b, err := doc.GeoJSON()
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(b, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.Equal(t, "Point", fc.Features[2].Geometry.Type)
	assert.Equal(t, float64(2), fc.Features[2].Properties["no"])
	assert.Equal(t, true, fc.Features[2].Properties["terminal"])
}
