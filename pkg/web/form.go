package web

import (
	"html/template"
	"io"
)

var formTmpl = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>EdgeTX log to INAV mission</title></head>
<body>
<h2>EdgeTX log to INAV mission</h2>
<form method="post" action="/convert" enctype="multipart/form-data">
<p><label>EdgeTX CSV log <input type="file" name="file" accept=".csv" required></label></p>
<p><label>Mission name <input type="text" name="mission_name" value="{{.Name}}"></label></p>
<p><label>Altitude (blank to use the log) <input type="text" name="custom_alt" value="{{.Altitude}}"></label></p>
<p><label>Cruise speed <input type="text" name="cruise_speed" value="{{.Speed}}"></label></p>
<p><label>Spacing <input type="text" name="spacing" value="{{.Spacing}}"></label></p>
<p><label>Max waypoints <input type="text" name="max_wps" value="{{.MaxWP}}"></label></p>
<p><label>Units <select name="units">
{{range .UnitChoices}}<option value="{{.}}"{{if eq . $.Units}} selected{{end}}>{{.}}</option>
{{end}}</select></label></p>
<p><label>Geofence <select name="geofence">
{{range .GeofenceChoices}}<option value="{{.}}"{{if eq . $.Geofence}} selected{{end}}>{{.}}</option>
{{end}}</select></label></p>
<p><input type="submit" value="Convert"></p>
</form>
</body>
</html>
`))

type formData struct {
	Name            string
	Altitude        string
	Speed           string
	Spacing         string
	MaxWP           string
	Units           string
	Geofence        string
	UnitChoices     []string
	GeofenceChoices []string
}

func renderForm(w io.Writer, d formData) error {
	d.UnitChoices = []string{"metric", "imperial"}
	d.GeofenceChoices = []string{"global", "conus", "none"}
	return formTmpl.Execute(w, d)
}
