package fallback

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
)

// Family is a coarse intent grouping for fallback patterns. Families are
// evaluated in a fixed priority order; within a family, pattern order is
// fixed too, and the first match wins.
type Family string

const (
	FamilyEnumerate Family = "enumerate-entities"
	FamilyCount     Family = "count-entities"
	FamilyList      Family = "list-entities"
	FamilySchema    Family = "show-schema"
	FamilyGeneric   Family = "generic"
)

// Pattern pairs a matcher with a deterministic template builder. Builders
// only ever substitute the matched entity name; they never splice request
// text into the template.
type Pattern struct {
	ID      string
	Family  Family
	matcher glob.Glob
	build   func(entity entity) string
}

type entity struct {
	name  string
	table string
}

// entityPattern extracts the business entity a request is about.
var entityPattern = regexp.MustCompile(
	`\b(customers?|products?|orders?|sales|users?|items?|invoices?|payments?|categories|regions?|employees?)\b`,
)

// plural entity word to table name. Unknown entities settle on the customer
// table, the same terminal default the count templates use.
var entityTables = map[string]string{
	"customer":   "customers",
	"product":    "products",
	"order":      "orders",
	"sale":       "sales",
	"sales":      "sales",
	"user":       "users",
	"item":       "items",
	"invoice":    "invoices",
	"payment":    "payments",
	"category":   "categories",
	"categories": "categories",
	"region":     "regions",
	"employee":   "employees",
}

const (
	defaultEntityName  = "customer"
	defaultEntityTable = "customers"
	listRowLimit       = 10
	enumerateRowLimit  = 25
)

func extractEntity(normalized string) entity {
	match := entityPattern.FindString(normalized)
	if match == "" {
		return entity{name: defaultEntityName, table: defaultEntityTable}
	}

	singular := trimPlural(match)
	table, ok := entityTables[singular]
	if !ok {
		table = entityTables[match]
	}
	if table == "" {
		table = defaultEntityTable
	}
	return entity{name: singular, table: table}
}

func trimPlural(word string) string {
	if word == "sales" || word == "categories" {
		return word
	}
	if len(word) > 1 && word[len(word)-1] == 's' {
		return word[:len(word)-1]
	}
	return word
}

func defaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:      "enumerate-available",
			Family:  FamilyEnumerate,
			matcher: glob.MustCompile(`what * are there*`),
			build:   buildEnumerate,
		},
		{
			ID:      "enumerate-existing",
			Family:  FamilyEnumerate,
			matcher: glob.MustCompile(`which * exist*`),
			build:   buildEnumerate,
		},
		{
			ID:      "enumerate-distinct",
			Family:  FamilyEnumerate,
			matcher: glob.MustCompile(`*distinct *`),
			build:   buildEnumerate,
		},
		{
			ID:      "count-how-many",
			Family:  FamilyCount,
			matcher: glob.MustCompile(`*how many*`),
			build:   buildCount,
		},
		{
			ID:      "count-verb",
			Family:  FamilyCount,
			matcher: glob.MustCompile(`count *`),
			build:   buildCount,
		},
		{
			ID:      "count-total-number",
			Family:  FamilyCount,
			matcher: glob.MustCompile(`*total number of*`),
			build:   buildCount,
		},
		{
			ID:      "list-show",
			Family:  FamilyList,
			matcher: glob.MustCompile(`show *`),
			build:   buildList,
		},
		{
			ID:      "list-verb",
			Family:  FamilyList,
			matcher: glob.MustCompile(`list *`),
			build:   buildList,
		},
		{
			ID:      "list-display",
			Family:  FamilyList,
			matcher: glob.MustCompile(`display *`),
			build:   buildList,
		},
		{
			ID:      "schema-keyword",
			Family:  FamilySchema,
			matcher: glob.MustCompile(`*schema*`),
			build:   buildSchema,
		},
		{
			ID:      "schema-tables",
			Family:  FamilySchema,
			matcher: glob.MustCompile(`*tables*`),
			build:   buildSchema,
		},
		{
			ID:      "schema-describe",
			Family:  FamilySchema,
			matcher: glob.MustCompile(`describe *`),
			build:   buildSchema,
		},
	}
}

func buildEnumerate(e entity) string {
	return fmt.Sprintf("SELECT DISTINCT name FROM %s ORDER BY name LIMIT %d", e.table, enumerateRowLimit)
}

func buildCount(e entity) string {
	return fmt.Sprintf("SELECT COUNT(*) AS %s_count FROM %s", e.name, e.table)
}

func buildList(e entity) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY 1 LIMIT %d", e.table, listRowLimit)
}

func buildSchema(entity) string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
}

func buildGeneric(entity) string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
}
