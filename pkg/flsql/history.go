package flsql

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"etx2mission/pkg/types"
)

type Conversion struct {
	ID         string  `db:"id"`
	Stamp      int64   `db:"stamp"`
	Source     string  `db:"source"`
	Name       string  `db:"name"`
	Spacing    float64 `db:"spacing"`
	Passes     int     `db:"passes"`
	OverBudget int     `db:"overbudget"`
	Records    int     `db:"records"`
	Samples    int     `db:"samples"`
	Waypoints  int     `db:"waypoints"`
}

func (c Conversion) Time() time.Time {
	return time.Unix(c.Stamp, 0)
}

type wprow struct {
	No       int     `db:"no"`
	Lat      float64 `db:"lat"`
	Lon      float64 `db:"lon"`
	Alt      int     `db:"alt"`
	Speed    int     `db:"speed"`
	Terminal int     `db:"terminal"`
}

type Archive struct {
	db *sqlx.DB
}

// OpenArchive opens an existing archive for reading
func OpenArchive(fn string) (*Archive, error) {
	if _, err := os.Stat(fn); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", fn)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Conversions() ([]Conversion, error) {
	var cs []Conversion
	err := a.db.Select(&cs, `select id, stamp, source, name, spacing, passes, overbudget, records, samples, waypoints from conversions order by stamp, rowid`)
	if err != nil {
		return nil, fmt.Errorf("conversions: %w", err)
	}
	return cs, nil
}

func (a *Archive) Waypoints(id string) ([]types.Waypoint, error) {
	var rows []wprow
	err := a.db.Select(&rows, `select no, lat, lon, alt, speed, terminal from waypoints where id = $1 order by no`, id)
	if err != nil {
		return nil, fmt.Errorf("waypoints: %w", err)
	}
	wps := make([]types.Waypoint, 0, len(rows))
	for _, r := range rows {
		wps = append(wps, types.Waypoint{
			No:       r.No,
			Point:    types.GeoPoint{Lat: r.Lat, Lon: r.Lon},
			Alt:      r.Alt,
			Speed:    r.Speed,
			Terminal: r.Terminal != 0,
		})
	}
	return wps, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
