package tabular

import (
	"context"
	"fmt"
	"strings"

	"github.com/rollcall/rollcall/internal/domain/model"
	"github.com/rollcall/rollcall/pkg/logger"
)

// ReadOverrides loads manual override rules. Headers are matched after
// folding (lowercase, spaces/underscores/hyphens removed) so hand-edited
// files load regardless of header styling; the legacy FullName_A /
// Override_Email / Override_FullName_B spellings still resolve.
func ReadOverrides(ctx context.Context, path string) ([]model.OverrideRule, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	header := records[0]
	nameIdx := columnIndex(header, "sourcename", "fullnamea", "name")
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: source name in %s", ErrMissingColumn, path)
	}
	emailIdx := columnIndex(header, "overrideemail")
	identIdx := columnIndex(header, "overridename", "overrideidentityname", "overridefullnameb")

	var out []model.OverrideRule
	for _, rec := range records[1:] {
		rule := model.OverrideRule{
			SourceName:           strings.TrimSpace(cell(rec, nameIdx)),
			OverrideEmail:        strings.TrimSpace(cell(rec, emailIdx)),
			OverrideIdentityName: strings.TrimSpace(cell(rec, identIdx)),
		}
		if rule.SourceName == "" {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

// ReadDecisions loads human verdicts, typically a filled-in copy of the
// proposed_matches table. Rows with a blank name are skipped; unknown
// verdict strings are kept as blank verdicts and logged.
func ReadDecisions(ctx context.Context, path string) ([]model.Decision, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	header := records[0]
	nameIdx := columnIndex(header, "sourcename", "fullnamea", "name")
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: source name in %s", ErrMissingColumn, path)
	}
	suggIdx := columnIndex(header, "suggestedemail")
	verdictIdx := columnIndex(header, "decision", "verdict")
	chosenIdx := columnIndex(header, "chosenemail")

	log := logger.Get().Named("tabular")
	var out []model.Decision
	for i, rec := range records[1:] {
		name := strings.TrimSpace(cell(rec, nameIdx))
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(cell(rec, verdictIdx))
		verdict, ok := model.ParseVerdict(raw)
		if !ok {
			log.Warn(ctx, "ignoring unknown decision verdict",
				logger.String("name", name),
				logger.String("verdict", raw),
				logger.Int("row", i+2),
			)
			verdict = model.VerdictNone
		}
		out = append(out, model.Decision{
			SourceName:     name,
			SuggestedEmail: strings.TrimSpace(cell(rec, suggIdx)),
			Verdict:        verdict,
			ChosenEmail:    strings.TrimSpace(cell(rec, chosenIdx)),
		})
	}
	return out, nil
}

// foldHeader lowercases a header cell and strips spaces, underscores, and
// hyphens.
func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '\t', '_', '-':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columnIndex resolves the first header cell whose folded form matches any
// alias, or -1 when none does.
func columnIndex(header []string, aliases ...string) int {
	for i, h := range header {
		folded := foldHeader(h)
		for _, a := range aliases {
			if folded == a {
				return i
			}
		}
	}
	return -1
}
