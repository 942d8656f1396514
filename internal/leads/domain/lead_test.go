package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestParseTagsShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want []string
	}{
		{"nil", nil, []string{}},
		{"native list", []string{"vip", "חם"}, []string{"vip", "חם"}},
		{"interface list", []any{"a", "b"}, []string{"a", "b"}},
		{"interface list with junk", []any{"a", 7, "b"}, []string{"a", "b"}},
		{"json encoded string", `["a","b"]`, []string{"a", "b"}},
		{"json encoded non-list", `{"a":1}`, []string{}},
		{"broken json string", `["a",`, []string{}},
		{"plain text", "not json", []string{}},
		{"number", 42, []string{}},
		{"raw message list", json.RawMessage(`["x"]`), []string{"x"}},
		{"raw message encoded string", json.RawMessage(`"[\"x\",\"y\"]"`), []string{"x", "y"}},
		{"raw message object", json.RawMessage(`{"x":1}`), []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTags(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseTags(%v) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseTagsIdempotent(t *testing.T) {
	first := ParseTags([]string{"a", "b"})
	second := ParseTags(any(first))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalizing twice changed the result: %v vs %v", first, second)
	}
}

func TestCreatedTimeFallsBackToEpoch(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "31/12/2024"} {
		lead := Lead{CreatedAt: raw}
		if got := lead.CreatedTime(); !got.Equal(time.Unix(0, 0).UTC()) {
			t.Fatalf("CreatedTime(%q) = %v, want epoch", raw, got)
		}
	}

	lead := Lead{CreatedAt: "2026-02-01T10:00:00Z"}
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if got := lead.CreatedTime(); !got.Equal(want) {
		t.Fatalf("CreatedTime = %v, want %v", got, want)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	ordered := []LeadPriority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, ""}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Fatalf("rank of %q (%d) should be below %q (%d)",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}

func TestHasTag(t *testing.T) {
	lead := Lead{Tags: `["vip","returning"]`}
	if !lead.HasTag("vip") {
		t.Fatal("expected vip tag to be found")
	}
	if lead.HasTag("cold") {
		t.Fatal("did not expect cold tag")
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusNew.Label() != "חדש" {
		t.Fatalf("unexpected label for new: %q", StatusNew.Label())
	}
	if LeadStatus("weird").Label() != "weird" {
		t.Fatal("unknown status should fall back to raw value")
	}
	if !StatusClosedWon.Valid() || LeadStatus("weird").Valid() {
		t.Fatal("status validity check broken")
	}
}

func TestResolveProjectName(t *testing.T) {
	projects := []ProjectRef{{ID: "p1", Name: "מגדלי הים"}, {ID: "p2", Name: "פארק המושבה"}}
	if got := ResolveProjectName(projects, "p2"); got != "פארק המושבה" {
		t.Fatalf("got %q", got)
	}
	if got := ResolveProjectName(projects, "missing"); got != "" {
		t.Fatalf("unresolved id should yield empty string, got %q", got)
	}
	if got := ResolveProjectName(projects, ""); got != "" {
		t.Fatalf("empty id should yield empty string, got %q", got)
	}
}
