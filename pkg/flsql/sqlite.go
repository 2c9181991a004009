package flsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"etx2mission/pkg/types"
)

const SCHEMA = `CREATE TABLE IF NOT EXISTS conversions (id text NOT NULL PRIMARY KEY,
 stamp integer, source text, name text, spacing double precision, passes integer,
 overbudget integer, records integer, samples integer, waypoints integer);
CREATE TABLE IF NOT EXISTS waypoints (id text NOT NULL, no integer,
 lat double precision, lon double precision, alt integer, speed integer, terminal integer)`

const ICONV = `insert into conversions (id, stamp, source, name, spacing, passes, overbudget, records, samples, waypoints) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
const IWP = `insert into waypoints (id, no, lat, lon, alt, speed, terminal) values ($1,$2,$3,$4,$5,$6,$7)`

type ConversionRecord struct {
	Stamp      time.Time
	Source     string
	Name       string
	Spacing    float64
	Passes     int
	OverBudget bool
	Records    int
	Samples    int
}

type DBL struct {
	db *sql.DB
}

// NewSQLliteDB opens (or creates) a conversion archive
func NewSQLliteDB(fn string) (*DBL, error) {
	db, err := sql.Open("sqlite", fn)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(SCHEMA); err != nil {
		db.Close()
		return nil, fmt.Errorf("tables: %w", err)
	}
	return &DBL{db: db}, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteConversion stores a conversion and its waypoints, returning the new id
func (d *DBL) WriteConversion(c ConversionRecord, wps []types.Waypoint) (string, error) {
	id := uuid.NewString()
	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	if _, err = tx.Exec(ICONV, id, c.Stamp.Unix(), c.Source, c.Name, c.Spacing, c.Passes,
		btoi(c.OverBudget), c.Records, c.Samples, len(wps)); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("conversion: %w", err)
	}
	for _, w := range wps {
		if _, err = tx.Exec(IWP, id, w.No, w.Point.Lat, w.Point.Lon, w.Alt, w.Speed, btoi(w.Terminal)); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("waypoint: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (d *DBL) Close() error {
	return d.db.Close()
}
