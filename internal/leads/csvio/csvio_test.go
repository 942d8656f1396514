package csvio

import (
	"strings"
	"testing"
	"time"

	"estate_admin_backend/internal/leads/domain"
)

func TestSplitLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `"כהן, דני",050`, []string{"כהן, דני", "050"}},
		{"doubled quote", `"he said ""hi""",x`, []string{`he said "hi"`, "x"}},
		{"outer whitespace trimmed", ` a , "b" `, []string{"a", "b"}},
		{"empty cells", ",,", []string{"", "", ""}},
		{"trailing empty", "a,", []string{"a", ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitLine(tc.line)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitLine(%q) = %v, want %v", tc.line, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("cell %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestQuoteCell(t *testing.T) {
	if got := QuoteCell(`a "b"`); got != `"a ""b"""` {
		t.Fatalf("QuoteCell = %s", got)
	}
}

func TestExportShape(t *testing.T) {
	leads := []domain.Lead{{
		Name:                "דני",
		Phone:               "050-1234567",
		Email:               "dani@x.com",
		Status:              domain.StatusNew,
		Priority:            domain.PriorityHigh,
		Source:              domain.SourceWebsite,
		InvestmentGoal:      domain.GoalInvestment,
		BudgetRange:         "1M-2M",
		Tags:                `["vip","חם"]`,
		InterestedProjectID: "p1",
		CreatedAt:           "2026-02-01T10:00:00Z",
	}}
	projects := []domain.ProjectRef{{ID: "p1", Name: "מגדלי הים"}}

	out := Export(leads, projects)

	if !strings.HasPrefix(out, BOM) {
		t.Fatal("export must start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, BOM), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	header := SplitLine(lines[0])
	if len(header) != 11 {
		t.Fatalf("expected 11 header columns, got %d", len(header))
	}

	row := SplitLine(lines[1])
	if len(row) != 11 {
		t.Fatalf("expected 11 cells, got %d", len(row))
	}
	if row[0] != "דני" || row[1] != "050-1234567" || row[2] != "dani@x.com" {
		t.Fatalf("contact cells wrong: %v", row[:3])
	}
	if row[8] != "מגדלי הים" {
		t.Fatalf("project cell = %q", row[8])
	}
	if row[9] != "vip;חם" {
		t.Fatalf("tags cell = %q", row[9])
	}
	if row[10] != "01/02/2026" {
		t.Fatalf("date cell = %q", row[10])
	}

	// Every cell is quoted.
	for _, raw := range strings.Split(lines[1], `","`) {
		if raw == "" {
			t.Fatal("unexpected empty segment")
		}
	}
	if !strings.HasPrefix(lines[1], `"`) || !strings.HasSuffix(lines[1], `"`) {
		t.Fatal("row cells must be quoted end to end")
	}
}

func TestExportUnresolvedProjectIsEmpty(t *testing.T) {
	out := Export([]domain.Lead{{Name: "x", InterestedProjectID: "ghost"}}, nil)
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, BOM), "\n"), "\n")
	row := SplitLine(lines[1])
	if row[8] != "" {
		t.Fatalf("unresolved project should export empty, got %q", row[8])
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if got := ExportFilename(now); got != "leads_2026-08-29.csv" {
		t.Fatalf("filename = %q", got)
	}
}

func TestSplitLinesHandlesCRLFAndBOM(t *testing.T) {
	lines := SplitLines(BOM + "a,b\r\nc,d\n")
	if len(lines) != 3 || lines[0] != "a,b" || lines[1] != "c,d" {
		t.Fatalf("lines = %v", lines)
	}
}
