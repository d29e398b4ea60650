package fallback

import (
	"strings"
	"testing"
)

func TestRespond_Totality(t *testing.T) {
	r := New()

	inputs := []string{
		"",
		"   ",
		"!!??%%",
		"qwertyuiop zxcvbnm",
		"how many customers",
		"show products",
		"the quick brown fox",
		strings.Repeat("a", 10000),
	}

	for _, input := range inputs {
		resp := r.Respond(input)
		if !resp.Success {
			t.Errorf("Respond(%.20q) Success = false, want true", input)
		}
		if resp.Query == "" {
			t.Errorf("Respond(%.20q) produced empty query", input)
		}
		if resp.PatternID == "" {
			t.Errorf("Respond(%.20q) produced empty pattern id", input)
		}
	}
}

func TestRespond_CountFamily(t *testing.T) {
	r := New()

	resp := r.Respond("how many products")

	if resp.Family != FamilyCount {
		t.Errorf("Family = %s, want %s", resp.Family, FamilyCount)
	}
	if resp.Query != "SELECT COUNT(*) AS product_count FROM products" {
		t.Errorf("unexpected query %q", resp.Query)
	}
}

func TestRespond_ListFamily(t *testing.T) {
	r := New()

	resp := r.Respond("show orders")

	if resp.Family != FamilyList {
		t.Errorf("Family = %s, want %s", resp.Family, FamilyList)
	}
	if !strings.Contains(resp.Query, "FROM orders") {
		t.Errorf("query should target the orders table, got %q", resp.Query)
	}
	if !strings.Contains(resp.Query, "LIMIT") {
		t.Errorf("list template must bound its result set, got %q", resp.Query)
	}
}

func TestRespond_SchemaFamily(t *testing.T) {
	r := New()

	resp := r.Respond("what does the schema look like")

	if resp.Family != FamilySchema {
		t.Errorf("Family = %s, want %s", resp.Family, FamilySchema)
	}
	if !strings.Contains(resp.Query, "sqlite_master") {
		t.Errorf("unexpected query %q", resp.Query)
	}
}

func TestRespond_EnumerateFamily(t *testing.T) {
	r := New()

	resp := r.Respond("what categories are there")

	if resp.Family != FamilyEnumerate {
		t.Errorf("Family = %s, want %s", resp.Family, FamilyEnumerate)
	}
	if !strings.Contains(resp.Query, "DISTINCT") {
		t.Errorf("unexpected query %q", resp.Query)
	}
}

func TestRespond_GenericTerminal(t *testing.T) {
	r := New()

	resp := r.Respond("zzz unmatched gibberish zzz")

	if resp.PatternID != "generic" {
		t.Errorf("PatternID = %s, want generic", resp.PatternID)
	}
	if !resp.Success {
		t.Error("generic branch must still succeed")
	}
}

func TestRespond_FirstMatchWins(t *testing.T) {
	r := New()

	// Matches both the count family ("how many") and, structurally, nothing
	// earlier; enumerate patterns are checked first and must not fire.
	resp := r.Respond("how many distinct customers")

	if resp.Family != FamilyEnumerate {
		t.Errorf("Family = %s, want %s (enumerate outranks count)", resp.Family, FamilyEnumerate)
	}
}

func TestRespond_Deterministic(t *testing.T) {
	r := New()

	first := r.Respond("count users")
	second := r.Respond("count users")

	if first != second {
		t.Errorf("Respond not deterministic: %+v != %+v", first, second)
	}
}

func TestRespond_IrregularPluralEntities(t *testing.T) {
	r := New()

	cases := []struct {
		request string
		table   string
	}{
		{"how many categories", "categories"},
		{"how many sales", "sales"},
	}

	for _, tc := range cases {
		resp := r.Respond(tc.request)
		if !strings.Contains(resp.Query, "FROM "+tc.table) {
			t.Errorf("Respond(%q) = %q, want table %s", tc.request, resp.Query, tc.table)
		}
		if strings.Contains(resp.Query, "customers") {
			t.Errorf("Respond(%q) must not settle on the default table: %q", tc.request, resp.Query)
		}
	}
}

func TestRespond_UnknownEntityFallsBack(t *testing.T) {
	r := New()

	resp := r.Respond("how many wombats")

	if resp.Family != FamilyCount {
		t.Errorf("Family = %s, want %s", resp.Family, FamilyCount)
	}
	if !strings.Contains(resp.Query, "customers") {
		t.Errorf("unknown entity should settle on the default table, got %q", resp.Query)
	}
}
