package otx

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var ErrMissingColumn = errors.New("missing required column")

type hdrrec struct {
	i    int
	u    string
	name string
}

// header maps the normalised column name to its index and unit
type header map[string]hdrrec

var unitrx = regexp.MustCompile(`(\w+)\(([A-Za-z/@]*)\)`)

func colkey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func readHeaders(r []string) header {
	hdrs := make(header)
	var k, u string
	for i, s := range r {
		s = strings.TrimSpace(s)
		if i == 0 {
			s = strings.TrimPrefix(s, "\ufeff")
		}
		m := unitrx.FindAllStringSubmatch(s, -1)
		if len(m) > 0 {
			k = m[0][1]
			u = m[0][2]
		} else {
			k = s
			u = ""
		}
		key := colkey(k)
		if _, ok := hdrs[key]; !ok {
			hdrs[key] = hdrrec{i: i, u: u, name: s}
		}
	}
	return hdrs
}

// Record is one raw log row; values are looked up by column name.
type Record struct {
	hdr  header
	vals []string
}

// NewRecord builds a Record from column name => value. Column names may
// carry a unit suffix, e.g. "Alt(ft)".
func NewRecord(fields map[string]string) Record {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	hdr := readHeaders(names)
	vals := make([]string, len(names))
	for i, k := range names {
		vals[i] = fields[k]
	}
	return Record{hdr: hdr, vals: vals}
}

// Get returns the raw value and unit of the named column
func (r Record) Get(key string) (string, string, bool) {
	v, ok := r.hdr[colkey(key)]
	if !ok || v.i >= len(r.vals) {
		return "", "", false
	}
	return r.vals[v.i], v.u, true
}

func (r Record) Has(key string) bool {
	_, ok := r.hdr[colkey(key)]
	return ok
}

type Log struct {
	Name    string
	Records []Record
	hdrs    header
	cols    []string
}

// ReadLog reads an EdgeTX CSV log. The first row is the header.
func ReadLog(rd io.Reader) (*Log, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	l := &Log{}
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reader: %w", err)
		}
		if i == 0 {
			l.hdrs = readHeaders(record)
			l.cols = make([]string, len(record))
			copy(l.cols, record)
			continue
		}
		l.Records = append(l.Records, Record{hdr: l.hdrs, vals: record})
	}
	if l.hdrs == nil {
		return nil, fmt.Errorf("reader: empty log")
	}
	return l, nil
}

func (l *Log) Has(key string) bool {
	_, ok := l.hdrs[colkey(key)]
	return ok
}

// CheckColumns reports a missing required column as ErrMissingColumn
func (l *Log) CheckColumns(req []string) error {
	var missing []string
	for _, c := range req {
		if !l.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (l *Log) Dump(w io.Writer) {
	for k, s := range l.cols {
		fmt.Fprintf(w, "%3d: %s\n", k, strings.TrimSpace(s))
	}
}

type OTXLOG struct {
	name string
}

func NewOTXReader(fn string) OTXLOG {
	return OTXLOG{name: fn}
}

func (o *OTXLOG) LogName() string {
	return filepath.Base(o.name)
}

func (o *OTXLOG) Read() (*Log, error) {
	fh, err := os.Open(o.name)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	defer fh.Close()
	l, err := ReadLog(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.LogName(), err)
	}
	l.Name = o.LogName()
	return l, nil
}

func (o *OTXLOG) Dump() error {
	l, err := o.Read()
	if err != nil {
		return err
	}
	l.Dump(os.Stdout)
	return nil
}
