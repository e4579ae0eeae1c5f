// Package importer reads process spreadsheets exported as delimited text.
//
// Columns are located by header name, so column order does not matter. Rows
// whose type mentions "PREGÃO" become biddings; every other row becomes a
// process record, completed when it has an exit date. Dates that cannot be
// parsed are kept as zero values so the engine reports them as data-quality
// problems instead of silently inventing a date.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"procintel/internal/config"
	"procintel/internal/logging"
	"procintel/internal/perception"
	"procintel/internal/types"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmpty is returned for input without a header and at least one row.
var ErrEmpty = errors.New("csv is empty or has no data rows")

// column keys, matched as folded substrings of the header.
const (
	colSEI          = "sei"
	colObject       = "objeto"
	colResponsible  = "responsavel"
	colType         = "tipo"
	colModality     = "modalidade"
	colArrival      = "chegada"
	colExit         = "saida"
	colObservations = "observacoes"
)

var allColumns = []string{colSEI, colObject, colResponsible, colType, colModality, colArrival, colExit, colObservations}

// Result is the outcome of one import.
type Result struct {
	Snapshot types.Snapshot
	Rows     int
	Blank    int
	Warnings []string
}

// Importer parses delimited process sheets.
type Importer struct {
	delimiter rune
	layout    string
	location  *time.Location
	newID     func() string
}

// Option configures an Importer.
type Option func(*Importer)

// WithDelimiter sets the field separator.
func WithDelimiter(r rune) Option {
	return func(im *Importer) { im.delimiter = r }
}

// WithDateLayout sets the time.Parse layout for date cells.
func WithDateLayout(layout string) Option {
	return func(im *Importer) { im.layout = layout }
}

// WithLocation sets the zone dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(im *Importer) { im.location = loc }
}

// WithIDGenerator replaces the record ID source.
func WithIDGenerator(fn func() string) Option {
	return func(im *Importer) { im.newID = fn }
}

// New creates an importer for ';'-separated DD/MM/YYYY sheets.
func New(opts ...Option) *Importer {
	im := &Importer{
		delimiter: ';',
		layout:    "02/01/2006",
		location:  time.Local,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// FromConfig creates an importer from configuration.
func FromConfig(cfg config.ImportConfig, opts ...Option) (*Importer, error) {
	var base []Option
	if cfg.DateLayout != "" {
		base = append(base, WithDateLayout(cfg.DateLayout))
	}
	if cfg.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if size != len(cfg.Delimiter) {
			return nil, fmt.Errorf("delimiter %q must be a single character", cfg.Delimiter)
		}
		base = append(base, WithDelimiter(r))
	}
	return New(append(base, opts...)...), nil
}

// ImportFile imports the sheet at path.
func (im *Importer) ImportFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := im.Import(f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return res, nil
}

// Import parses a sheet from r.
func (im *Importer) Import(r io.Reader) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryImport, "Import")
	defer timer.Stop()

	cr := csv.NewReader(r)
	cr.Comma = im.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := indexColumns(header)
	if idx[colSEI] < 0 {
		return nil, fmt.Errorf("%w: SEI", ErrMissingColumn)
	}

	res := &Result{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(rec) {
			res.Blank++
			continue
		}
		res.Rows++
		im.addRow(res, idx, rec, line)
	}

	if res.Rows == 0 {
		return nil, ErrEmpty
	}
	logging.Import("imported %d rows: %d processes, %d completed, %d biddings (%d warnings)",
		res.Rows, len(res.Snapshot.Processes), len(res.Snapshot.Completed), len(res.Snapshot.Biddings), len(res.Warnings))
	return res, nil
}

func (im *Importer) addRow(res *Result, idx map[string]int, rec []string, line int) {
	get := func(col string) string {
		i := idx[col]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	typ := get(colType)
	if strings.Contains(perception.Fold(typ), "pregao") {
		status := ""
		if strings.Contains(perception.Fold(typ), "autorizado") {
			status = "AUTORIZADO"
		}
		seq := ""
		if len(rec) > 0 {
			seq = strings.TrimSpace(rec[0])
		}
		res.Snapshot.Biddings = append(res.Snapshot.Biddings, types.BiddingRecord{
			ID:          im.newID(),
			Seq:         seq,
			Description: get(colObject),
			SEI:         get(colSEI),
			Preparer:    get(colResponsible),
			Status:      status,
			Notes:       get(colObservations),
		})
		return
	}

	p := types.ProcessRecord{
		ID:           im.newID(),
		Name:         get(colObject),
		SEI:          get(colSEI),
		Responsible:  get(colResponsible),
		Type:         types.ProcessType(typ),
		Modality:     types.Modality(get(colModality)),
		Observations: get(colObservations),
	}
	arrival, ok := im.parseDate(get(colArrival))
	if !ok {
		res.warn("line %d (%s): invalid arrival date %q", line, p.SEI, get(colArrival))
	}
	p.ArrivalDate = arrival
	if raw := get(colExit); raw != "" {
		exit, ok := im.parseDate(raw)
		if !ok {
			res.warn("line %d (%s): invalid exit date %q", line, p.SEI, raw)
		}
		p.ExitDate = &exit
	}

	if p.IsCompleted() {
		res.Snapshot.Completed = append(res.Snapshot.Completed, p)
	} else {
		res.Snapshot.Processes = append(res.Snapshot.Processes, p)
	}
}

func (im *Importer) parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(im.layout, s, im.location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (r *Result) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logging.ImportWarn("%s", msg)
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(allColumns))
	for _, c := range allColumns {
		idx[c] = -1
	}
	for i, h := range header {
		h = perception.Fold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, c := range allColumns {
			if idx[c] < 0 && strings.Contains(h, c) {
				idx[c] = i
				break
			}
		}
	}
	return idx
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
