package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etx2mission/pkg/flsql"
	"etx2mission/pkg/geo"
	"etx2mission/pkg/mission"
	"etx2mission/pkg/options"
	"etx2mission/pkg/types"
)

var fixedNow = time.Date(2025, 9, 13, 14, 30, 0, 0, time.UTC)

func testApp(t *testing.T, archive *flsql.DBL) *fiber.App {
	t.Helper()
	return New(Settings{Defaults: options.Default(), Archive: archive, Now: func() time.Time { return fixedNow }})
}

func trackCSV(n int, zero bool) string {
	var sb strings.Builder
	sb.WriteString("Date,Time,GPS,Alt(m),GSpd(kmh)\n")
	origin := types.GeoPoint{Lat: 50.0, Lon: 8.0}
	for i := 0; i < n; i++ {
		gps := "0 0"
		if !zero {
			p := geo.Destination(origin, 0, float64(i)*10)
			gps = fmt.Sprintf("%.7f %.7f", p.Lat, p.Lon)
		}
		fmt.Fprintf(&sb, "2025-09-13,10:00:%02d.000,%s,100,36\n", i%60, gps)
	}
	return sb.String()
}

func upload(t *testing.T, app *fiber.App, target, csv string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if csv != "" {
		fw, err := mw.CreateFormFile("file", "flight.csv")
		require.NoError(t, err)
		_, err = io.WriteString(fw, csv)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestForm(t *testing.T) {
	app := testApp(t, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `name="file"`)
	assert.Contains(t, string(b), `value="mission_250913_1430"`)
	assert.Contains(t, string(b), `<option value="metric" selected>`)
}

func TestConvertUpload(t *testing.T) {
	app := testApp(t, nil)
	resp := upload(t, app, "/convert", trackCSV(300, false), map[string]string{
		"mission_name": "field",
		"cruise_speed": "36",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="field.mission"`)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))

	b, _ := io.ReadAll(resp.Body)
	s := string(b)
	assert.Contains(t, s, "<mission>")
	assert.Contains(t, s, `parameter1="1000"`)
	assert.Contains(t, s, `flag="165"`)
	assert.Contains(t, s, `save-date="2025-09-13T14:30:00Z"`)
}

func TestConvertRootPost(t *testing.T) {
	app := testApp(t, nil)
	resp := upload(t, app, "/", trackCSV(50, false), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "mission_250913_1430.mission")
}

func TestConvertReadBack(t *testing.T) {
	app := testApp(t, nil)
	resp := upload(t, app, "/convert", trackCSV(100, false), map[string]string{
		"custom_alt":   "80",
		"cruise_speed": "918",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)

	m, err := mission.ParseMission(b)
	require.NoError(t, err)
	require.NotEmpty(t, m.MissionItems)
	for _, mi := range m.MissionItems {
		assert.EqualValues(t, 80, mi.Alt)
		assert.EqualValues(t, types.MaxSpeed, mi.P1)
	}
}

func TestConvertBudget(t *testing.T) {
	app := testApp(t, nil)
	resp := upload(t, app, "/convert", trackCSV(300, false), map[string]string{"max_wps": "10"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.LessOrEqual(t, strings.Count(string(b), "<missionitem"), 10)
}

func TestConvertErrors(t *testing.T) {
	app := testApp(t, nil)

	tests := []struct {
		name   string
		csv    string
		fields map[string]string
		status int
		code   string
	}{
		{"no file", "", nil, fiber.StatusBadRequest, "bad_request"},
		{"all zero", trackCSV(20, true), nil, fiber.StatusUnprocessableEntity, "no_telemetry"},
		{"bad spacing", trackCSV(20, false), map[string]string{"spacing": "abc"}, fiber.StatusBadRequest, "bad_request"},
		{"negative spacing", trackCSV(20, false), map[string]string{"spacing": "-5"}, fiber.StatusBadRequest, "bad_request"},
		{"nan spacing", trackCSV(20, false), map[string]string{"spacing": "NaN"}, fiber.StatusBadRequest, "bad_request"},
		{"nan altitude", trackCSV(20, false), map[string]string{"custom_alt": "NaN"}, fiber.StatusBadRequest, "bad_request"},
		{"inf altitude", trackCSV(20, false), map[string]string{"custom_alt": "Inf"}, fiber.StatusBadRequest, "bad_request"},
		{"excessive speed", trackCSV(20, false), map[string]string{"cruise_speed": "1500"}, fiber.StatusBadRequest, "bad_request"},
		{"bad geofence", trackCSV(20, false), map[string]string{"geofence": "mars"}, fiber.StatusBadRequest, "bad_request"},
		{"no gps", "Date,Time,Alt(m)\n2025-09-13,10:00:00.000,100\n", nil, fiber.StatusBadRequest, "bad_request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := upload(t, app, "/convert", tc.csv, tc.fields)
			assert.Equal(t, tc.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tc.code, e.Code)
			assert.NotEmpty(t, e.Message)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestConvertArchive(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "archive.db")
	db, err := flsql.NewSQLliteDB(fn)
	require.NoError(t, err)

	app := testApp(t, db)
	resp := upload(t, app, "/convert", trackCSV(100, false), map[string]string{"mission_name": "stored"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, db.Close())

	a, err := flsql.OpenArchive(fn)
	require.NoError(t, err)
	defer a.Close()
	cs, err := a.Conversions()
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "stored.mission", cs[0].Name)
	assert.Equal(t, "flight.csv", cs[0].Source)
	assert.Equal(t, 100, cs[0].Records)
}

func TestHealthAndMetrics(t *testing.T) {
	app := testApp(t, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = upload(t, app, "/convert", trackCSV(50, false), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	s := string(b)
	assert.Contains(t, s, `etx2mission_convert_conversions_total{outcome="ok"}`)
	assert.Contains(t, s, "etx2mission_convert_waypoints_bucket")
	assert.Contains(t, s, "etx2mission_convert_passes_count")
	assert.Contains(t, s, "etx2mission_http_requests_total")
}
