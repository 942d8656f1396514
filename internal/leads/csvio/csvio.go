// Package csvio implements the CSV dialect used by the leads back office:
// every exported cell is double-quoted, quotes escape by doubling, and the
// payload opens with a UTF-8 BOM so spreadsheet tools pick the encoding.
//
// Parsing is line-based on purpose. Files from the export side and from the
// previous system never carry newlines inside quoted fields, and keeping
// the scanner line-scoped keeps import row accounting trivial. Rows with
// embedded newlines are therefore not supported.
package csvio

import (
	"strings"
	"time"

	"estate_admin_backend/internal/leads/domain"
)

// BOM is the UTF-8 byte-order-mark prefixed to every export.
const BOM = "\uFEFF"

const dateLayout = "02/01/2006"

// Header is the fixed export column order.
var Header = []string{
	"שם",
	"טלפון",
	"אימייל",
	"מטרת השקעה",
	"תקציב",
	"סטטוס",
	"עדיפות",
	"מקור",
	"פרויקט",
	"תגיות",
	"תאריך יצירה",
}

// QuoteCell wraps a cell in double quotes, doubling any literal quote.
func QuoteCell(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuoteCell(cell))
	}
	b.WriteByte('\n')
}

// Export serializes the given (already filtered and sorted) leads. Project
// names are resolved against the external project list; unresolved
// references export as an empty cell. Tags join with semicolons.
func Export(leads []domain.Lead, projects []domain.ProjectRef) string {
	var b strings.Builder
	b.WriteString(BOM)
	writeRow(&b, Header)

	for _, lead := range leads {
		created := ""
		if lead.CreatedAt != "" {
			created = lead.CreatedTime().Format(dateLayout)
		}
		writeRow(&b, []string{
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.InvestmentGoal.Label(),
			lead.BudgetRange,
			lead.Status.Label(),
			lead.Priority.Label(),
			lead.Source.Label(),
			domain.ResolveProjectName(projects, lead.InterestedProjectID),
			strings.Join(domain.ParseTags(lead.Tags), ";"),
			created,
		})
	}

	return b.String()
}

// ExportFilename names the download for a given day: leads_<ISO-date>.csv.
func ExportFilename(now time.Time) string {
	return "leads_" + now.Format("2006-01-02") + ".csv"
}

// SplitLine scans one CSV line into cells. A comma splits only outside
// quotes; a doubled quote inside a quoted cell yields one literal quote;
// whitespace around a cell (outside the quotes) is trimmed.
func SplitLine(line string) []string {
	var cells []string
	var cell strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(ch)
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))

	return cells
}

// SplitLines breaks raw pasted text into lines, tolerating CRLF endings
// and the BOM our own export produces.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
