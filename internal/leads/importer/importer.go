// Package importer runs CSV lead imports: header detection, per-row
// validation and strictly sequential submission to the lead store.
package importer

import (
	"context"
	"strings"

	"estate_admin_backend/internal/leads/csvio"
	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"
	"estate_admin_backend/platform/validator"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// NewLead is the creation payload handed to the delegated lead store.
// Status is always "new" for imported rows.
type NewLead struct {
	Name   string
	Phone  string
	Email  string
	Source domain.LeadSource
}

// Creator submits one new lead. The engine owns the actual collaborator.
type Creator interface {
	CreateLead(ctx context.Context, lead NewLead) error
}

// Result reports import accounting. Rows are never rolled back; partial
// success is the accepted outcome.
type Result struct {
	BatchID  string `json:"batchId"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// Header synonym sets, matched case-insensitively by exact key or
// substring. The back office accepts both Hebrew and English sheets.
var (
	nameSynonyms   = []string{"שם", "name"}
	phoneSynonyms  = []string{"טלפון", "נייד", "phone", "mobile", "tel"}
	emailSynonyms  = []string{"אימייל", "מייל", "דוא\"ל", "email"}
	sourceSynonyms = []string{"מקור", "source"}
)

// Importer validates pasted CSV text and creates one lead per valid row.
type Importer struct {
	creator Creator
	val     *validator.Validator
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates an importer. The limiter paces row submission so a large
// paste cannot flood the Record Service.
func New(creator Creator, val *validator.Validator, limiter *rate.Limiter, log *logger.Logger) *Importer {
	return &Importer{creator: creator, val: val, limiter: limiter, log: log}
}

// Run parses the pasted text and submits valid rows one at a time, in
// order, awaiting each creation before starting the next. It returns the
// imported/skipped counts; a missing required column rejects the whole
// import before any row is processed.
func (imp *Importer) Run(ctx context.Context, text string) (Result, error) {
	result := Result{BatchID: uuid.NewString()}

	lines := csvio.SplitLines(text)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return result, apperr.Validation("import text is empty")
	}

	cols, missing := resolveColumns(csvio.SplitLine(lines[0]))
	if len(missing) > 0 {
		return result, apperr.Validation("required columns missing").
			WithDetails(map[string][]string{"missingColumns": missing})
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := csvio.SplitLine(line)
		row := NewLead{
			Name:   cellAt(cells, cols.name),
			Phone:  cellAt(cells, cols.phone),
			Email:  cellAt(cells, cols.email),
			Source: parseSource(cellAt(cells, cols.source)),
		}

		// A row with all three contact fields blank is a blank line,
		// not an error.
		if row.Name == "" && row.Phone == "" && row.Email == "" {
			continue
		}

		if !imp.rowValid(row) {
			result.Skipped++
			continue
		}

		if err := imp.limiter.Wait(ctx); err != nil {
			return result, apperr.Wrap(apperr.KindInternal, "import interrupted", err)
		}
		if err := imp.creator.CreateLead(ctx, row); err != nil {
			imp.log.RecordServiceError("import_create_lead", "", err)
			result.Skipped++
			continue
		}
		result.Imported++
	}

	imp.log.ImportResult(result.BatchID, result.Imported, result.Skipped)
	return result, nil
}

// rowValid applies the per-record acceptance gate: name and phone are
// required, the phone may only carry digits and dial punctuation, and a
// non-blank email must look like local@domain.tld.
func (imp *Importer) rowValid(row NewLead) bool {
	if row.Name == "" || row.Phone == "" {
		return false
	}
	if imp.val.Var(row.Phone, "phone_chars") != nil {
		return false
	}
	if row.Email != "" && imp.val.Var(row.Email, "email") != nil {
		return false
	}
	return true
}

type columnIndexes struct {
	name   int
	phone  int
	email  int
	source int
}

// resolveColumns locates the recognized columns in the header row. The
// source column is optional; name, phone and email are required and their
// absence is reported by name.
func resolveColumns(header []string) (columnIndexes, []string) {
	cols := columnIndexes{name: -1, phone: -1, email: -1, source: -1}
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case cols.name == -1 && matchesAny(normalized, nameSynonyms):
			cols.name = i
		case cols.phone == -1 && matchesAny(normalized, phoneSynonyms):
			cols.phone = i
		case cols.email == -1 && matchesAny(normalized, emailSynonyms):
			cols.email = i
		case cols.source == -1 && matchesAny(normalized, sourceSynonyms):
			cols.source = i
		}
	}

	var missing []string
	if cols.name == -1 {
		missing = append(missing, "name")
	}
	if cols.phone == -1 {
		missing = append(missing, "phone")
	}
	if cols.email == -1 {
		missing = append(missing, "email")
	}
	return cols, missing
}

func matchesAny(cell string, synonyms []string) bool {
	for _, syn := range synonyms {
		if cell == syn || strings.Contains(cell, strings.ToLower(syn)) {
			return true
		}
	}
	return false
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// parseSource maps a source cell to the enum, accepting the raw enum value
// or its Hebrew label. Blank and unknown values default to "other".
func parseSource(cell string) domain.LeadSource {
	if cell == "" {
		return domain.SourceOther
	}
	normalized := strings.ToLower(cell)
	for _, source := range []domain.LeadSource{
		domain.SourceWebsite, domain.SourceFacebook, domain.SourceInstagram,
		domain.SourceGoogle, domain.SourceReferral, domain.SourcePhone,
		domain.SourceWhatsapp, domain.SourceOther,
	} {
		if normalized == string(source) || cell == source.Label() {
			return source
		}
	}
	return domain.SourceOther
}
