// Package suite loads named benchmark query suites from YAML manifests.
package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"querybench/internal/domain"
)

// LoadOptions configures manifest loading behavior.
type LoadOptions struct {
	// StripLimit removes a trailing literal LIMIT clause from every query
	// before it is stored. Benchmark runs submit full-table queries; ad-hoc
	// manifests copied from interactive sessions often carry a LIMIT tail.
	StripLimit bool
}

// manifest mirrors the on-disk YAML suite format.
type manifest struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Queries     []manifestQuery `yaml:"queries"`
}

type manifestQuery struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
	File string `yaml:"file"` // path to a .sql file, relative to the manifest
}

var _ domain.SuiteSource = (*Source)(nil)

// Source resolves suites loaded from a directory plus the embedded defaults.
// It is immutable after Load and safe for concurrent use.
type Source struct {
	suites map[string]domain.Suite
	order  []string
}

// Load reads every *.yaml manifest under dir and merges it over the embedded
// built-in suites. Duplicate names override built-ins; duplicates within dir
// are an error. An empty dir yields just the built-ins.
func Load(dir string, opts LoadOptions) (*Source, error) {
	src := &Source{suites: make(map[string]domain.Suite)}

	builtin, err := loadBuiltin(opts)
	if err != nil {
		return nil, fmt.Errorf("load built-in suites: %w", err)
	}
	for _, s := range builtin {
		src.add(s)
	}

	if dir == "" {
		return src, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("suite directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("suite directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read suite directory: %w", err)
	}

	seen := make(map[string]string) // suite name → manifest path
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		s, err := loadManifest(path, opts)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("suite %q defined in both %s and %s", s.Name, prev, path)
		}
		seen[s.Name] = path
		src.add(*s)
	}

	return src, nil
}

// Suite returns the named suite.
func (s *Source) Suite(name string) (*domain.Suite, error) {
	out, ok := s.suites[name]
	if !ok {
		return nil, domain.ErrNotFound("suite %q not found", name)
	}
	return &out, nil
}

// List returns all suites in manifest load order.
func (s *Source) List() ([]domain.Suite, error) {
	out := make([]domain.Suite, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.suites[n])
	}
	return out, nil
}

func (s *Source) add(suite domain.Suite) {
	if _, exists := s.suites[suite.Name]; !exists {
		s.order = append(s.order, suite.Name)
	}
	s.suites[suite.Name] = suite
}

// loadManifest parses one YAML manifest and resolves file-referenced queries
// relative to the manifest's directory.
func loadManifest(path string, opts LoadOptions) (*domain.Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return parseManifest(data, filepath.Dir(path), opts)
}

func parseManifest(data []byte, baseDir string, opts LoadOptions) (*domain.Suite, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" {
		return nil, domain.ErrValidation("suite manifest is missing a name")
	}
	if len(m.Queries) == 0 {
		return nil, domain.ErrValidation("suite %q has no queries", m.Name)
	}

	out := &domain.Suite{Name: m.Name, Description: m.Description}
	names := make(map[string]bool, len(m.Queries))
	for i, q := range m.Queries {
		if q.Name == "" {
			return nil, domain.ErrValidation("suite %q: query %d is missing a name", m.Name, i)
		}
		if names[q.Name] {
			return nil, domain.ErrValidation("suite %q: duplicate query name %q", m.Name, q.Name)
		}
		names[q.Name] = true

		sql := q.SQL
		switch {
		case sql != "" && q.File != "":
			return nil, domain.ErrValidation("suite %q: query %q sets both sql and file", m.Name, q.Name)
		case sql == "" && q.File == "":
			return nil, domain.ErrValidation("suite %q: query %q has no sql", m.Name, q.Name)
		case q.File != "":
			raw, err := os.ReadFile(filepath.Join(baseDir, q.File))
			if err != nil {
				return nil, fmt.Errorf("suite %q: query %q: %w", m.Name, q.Name, err)
			}
			sql = string(raw)
		}

		sql = strings.TrimSpace(sql)
		if opts.StripLimit {
			sql = StripLimit(sql)
		}
		if sql == "" {
			return nil, domain.ErrValidation("suite %q: query %q is empty", m.Name, q.Name)
		}
		out.Queries = append(out.Queries, domain.SuiteQuery{Name: q.Name, SQL: sql})
	}

	return out, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// limitTail matches a literal trailing LIMIT clause, with an optional
// statement terminator.
var limitTail = regexp.MustCompile(`(?i)\s+limit\s+\d+\s*;?\s*$`)

// StripLimit removes a trailing literal LIMIT clause from sql. Embedded LIMIT
// clauses (subqueries) are left untouched.
func StripLimit(sql string) string {
	return strings.TrimSpace(limitTail.ReplaceAllString(sql, ""))
}
