package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rollcall/rollcall/internal/domain/model"
	"github.com/rollcall/rollcall/pkg/logger"
	"github.com/rollcall/rollcall/pkg/metrics"
)

// Column positions in the two input files. The header row is skipped and
// only position matters; anything past the expected columns is ignored.
const (
	eventColName  = 0
	eventColHours = 1
	eventColEvent = 2

	rosterColCategory    = 0
	rosterColSubcategory = 1
	rosterColFullName    = 2
	rosterColCountry     = 3
	rosterColEmail       = 4
	rosterColCCEmail     = 5
	rosterColFirstConf   = 6
)

// CSVSource reads the activity log and the roster from CSV files.
type CSVSource struct {
	eventsPath string
	rosterPath string
	logger     logger.Logger
}

// NewCSVSource creates a source over the given event and roster paths.
func NewCSVSource(eventsPath, rosterPath string) *CSVSource {
	return &CSVSource{
		eventsPath: eventsPath,
		rosterPath: rosterPath,
		logger:     logger.Get().Named("tabular"),
	}
}

// Events reads the activity log. Rows with a blank name or an hours cell
// that does not parse as a number are dropped, logged, and counted.
func (s *CSVSource) Events(ctx context.Context) ([]model.EventRecord, error) {
	records, err := readRecords(s.eventsPath)
	if err != nil {
		return nil, err
	}

	var out []model.EventRecord
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		name := strings.TrimSpace(cell(rec, eventColName))
		rawHours := strings.TrimSpace(cell(rec, eventColHours))
		if name == "" {
			metrics.RecordEventInvalid()
			s.logger.Warn(ctx, "dropping event row with blank name", logger.Int("row", i+1))
			continue
		}
		hours, err := strconv.ParseFloat(rawHours, 64)
		if err != nil {
			metrics.RecordEventInvalid()
			s.logger.Warn(ctx, "dropping event row with non-numeric hours",
				logger.Int("row", i+1),
				logger.String("name", name),
				logger.String("hours", rawHours),
			)
			continue
		}
		metrics.RecordEventIngested()
		out = append(out, model.EventRecord{
			SourceName:  name,
			EventName:   strings.TrimSpace(cell(rec, eventColEvent)),
			CreditHours: hours,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, s.eventsPath)
	}
	return out, nil
}

// Roster reads the identity roster. Fully blank rows are skipped; duplicate
// emails are kept for the canonicalizer to collapse.
func (s *CSVSource) Roster(ctx context.Context) ([]model.RosterRecord, error) {
	records, err := readRecords(s.rosterPath)
	if err != nil {
		return nil, err
	}

	var out []model.RosterRecord
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		row := model.RosterRecord{
			Category:        strings.TrimSpace(cell(rec, rosterColCategory)),
			Subcategory:     strings.TrimSpace(cell(rec, rosterColSubcategory)),
			FullName:        strings.TrimSpace(cell(rec, rosterColFullName)),
			Country:         strings.TrimSpace(cell(rec, rosterColCountry)),
			Email:           strings.TrimSpace(cell(rec, rosterColEmail)),
			CCEmail:         strings.TrimSpace(cell(rec, rosterColCCEmail)),
			FirstConference: strings.TrimSpace(cell(rec, rosterColFirstConf)),
		}
		if row.FullName == "" && row.Email == "" {
			continue // blank spreadsheet row
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, s.rosterPath)
	}
	return out, nil
}

// CSVSink writes each table to <dir>/<name>.csv.
type CSVSink struct {
	dir string
}

// NewCSVSink creates the output directory if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return &CSVSink{dir: dir}, nil
}

// Write persists one table, header row first.
func (s *CSVSink) Write(ctx context.Context, t Table) error {
	f, err := os.Create(filepath.Join(s.dir, t.Name+".csv"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// readRecords loads a whole CSV file, tolerating a UTF-8 BOM and ragged
// rows.
func readRecords(path string) ([][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenInput, err)
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
	}
	return records, nil
}

// cell returns column i of a possibly short record, or "" when absent.
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
