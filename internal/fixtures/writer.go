package fixtures

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rollcall/rollcall/internal/domain/model"
)

// Input column orders mirror what the CSV source expects. The readers
// are positional, so the header text is documentation only.
var (
	eventsHeader = []string{"Name", "Hours", "Event"}
	rosterHeader = []string{"Category", "Subcategory", "Full Name", "Country", "Email", "CC Email", "First Conference"}
)

func writeEvents(dir string, events []model.EventRecord) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.SourceName,
			strconv.FormatFloat(e.CreditHours, 'f', -1, 64),
			e.EventName,
		})
	}
	return writeCSV(filepath.Join(dir, EventsFile), eventsHeader, rows)
}

func writeRoster(dir string, roster []model.RosterRecord) error {
	rows := make([][]string, 0, len(roster))
	for _, r := range roster {
		rows = append(rows, []string{
			r.Category, r.Subcategory, r.FullName, r.Country,
			r.Email, r.CCEmail, r.FirstConference,
		})
	}
	return writeCSV(filepath.Join(dir, RosterFile), rosterHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFixture, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFixture, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFixture, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFixture, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFixture, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFixture, err)
	}
	return nil
}
