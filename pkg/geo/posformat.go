package geo

import (
	"fmt"
	"math"
	"strings"

	"etx2mission/pkg/types"
)

func LatFormat(lat float64, dms bool) string {
	if !dms {
		return fmt.Sprintf("%.7f", lat)
	}
	return dmsFormat(lat, "%02d:%02d:%04.1f%c", "NS")
}

func LonFormat(lon float64, dms bool) string {
	if !dms {
		return fmt.Sprintf("%.7f", lon)
	}
	return dmsFormat(lon, "%03d:%02d:%04.1f%c", "EW")
}

func PositionFormat(p types.GeoPoint, dms bool) string {
	var sb strings.Builder
	sb.WriteString(LatFormat(p.Lat, dms))
	sb.WriteByte(' ')
	sb.WriteString(LonFormat(p.Lon, dms))
	return sb.String()
}

func dmsFormat(coord float64, ofmt string, ind string) string {
	ds := math.Abs(coord)
	d := int(ds)
	rem := (ds - float64(d)) * 3600.0
	m := int(rem / 60)
	s := rem - float64(m*60)
	if int(s*10) == 600 {
		m += 1
		s = 0
	}
	if m == 60 {
		m = 0
		d += 1
	}
	q := ind[0]
	if coord < 0.0 {
		q = ind[1]
	}
	return fmt.Sprintf(ofmt, d, m, s, q)
}

// FormatDistance renders metres as m or km
func FormatDistance(m float64) string {
	if m >= 10000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}
