// Package catalog holds the fixed menu of read-only queries the dashboard can run.
//
// Entries are declared in catalog.yaml and rendered once per SQL dialect at
// startup. Each entry pins the exact output columns it produces so that chart
// bindings can be checked against them before any query runs.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Dialect selects identifier quoting and date helpers for the rendered SQL.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{MySQL, Postgres, SQLite}

// ParseDialect maps a driver name to its dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// Entry is one selectable query.
type Entry struct {
	Label   string
	Slug    string
	SQL     string
	Columns []string
}

type rawEntry struct {
	Label   string   `yaml:"label"`
	SQL     string   `yaml:"sql"`
	Columns []string `yaml:"columns"`
}

type rawCatalog struct {
	Queries []rawEntry `yaml:"queries"`
}

// Catalog is immutable after Load and safe for concurrent use.
type Catalog struct {
	dialect Dialect
	entries []Entry
	byLabel map[string]int
	bySlug  map[string]int
}

// Load parses the embedded catalog and renders every entry for dialect d.
func Load(d Dialect) (*Catalog, error) {
	return parse(catalogYAML, d)
}

// MustLoad is Load for package-level initialisation and tests.
func MustLoad(d Dialect) *Catalog {
	c, err := Load(d)
	if err != nil {
		panic(err)
	}
	return c
}

func parse(data []byte, d Dialect) (*Catalog, error) {
	funcs, err := dialectFuncs(d)
	if err != nil {
		return nil, err
	}

	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(raw.Queries) == 0 {
		return nil, errors.New("catalog has no queries")
	}

	c := &Catalog{
		dialect: d,
		entries: make([]Entry, 0, len(raw.Queries)),
		byLabel: make(map[string]int, len(raw.Queries)),
		bySlug:  make(map[string]int, len(raw.Queries)),
	}

	for i, r := range raw.Queries {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, fmt.Errorf("catalog entry %d: empty label", i)
		}
		if _, dup := c.byLabel[label]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate label", label)
		}
		if len(r.Columns) == 0 {
			return nil, fmt.Errorf("catalog entry %q: no declared columns", label)
		}

		sqlText, err := render(label, r.SQL, funcs)
		if err != nil {
			return nil, err
		}

		slug := Slugify(label)
		if _, dup := c.bySlug[slug]; dup {
			return nil, fmt.Errorf("catalog entry %q: slug %q collides with another entry", label, slug)
		}

		c.byLabel[label] = len(c.entries)
		c.bySlug[slug] = len(c.entries)
		c.entries = append(c.entries, Entry{
			Label:   label,
			Slug:    slug,
			SQL:     sqlText,
			Columns: append([]string(nil), r.Columns...),
		})
	}

	return c, nil
}

func render(label, text string, funcs template.FuncMap) (string, error) {
	tmpl, err := template.New(label).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("catalog entry %q: parse sql: %w", label, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, nil); err != nil {
		return "", fmt.Errorf("catalog entry %q: render sql: %w", label, err)
	}
	sqlText := strings.TrimSpace(b.String())
	if !strings.HasPrefix(strings.ToUpper(sqlText), "SELECT ") {
		return "", fmt.Errorf("catalog entry %q: only SELECT statements are allowed", label)
	}
	return sqlText, nil
}

// Dialect reports the dialect the catalog was rendered for.
func (c *Catalog) Dialect() Dialect { return c.dialect }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of all entries in menu order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Labels returns the menu labels in order.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Label
	}
	return out
}

// Lookup finds an entry by its exact label.
func (c *Catalog) Lookup(label string) (Entry, bool) {
	i, ok := c.byLabel[label]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// BySlug finds an entry by its URL-safe slug.
func (c *Catalog) BySlug(slug string) (Entry, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Slugify lowercases s and collapses every run of non-alphanumeric characters into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
