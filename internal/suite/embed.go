package suite

import (
	"embed"
	"fmt"
	"io/fs"

	"querybench/internal/domain"
)

// builtinFS contains the suites that ship with the binary.
//
//go:embed suites/*.yaml
var builtinFS embed.FS

// loadBuiltin parses the embedded suite manifests.
func loadBuiltin(opts LoadOptions) ([]domain.Suite, error) {
	entries, err := fs.ReadDir(builtinFS, "suites")
	if err != nil {
		return nil, err
	}

	var out []domain.Suite
	for _, entry := range entries {
		data, err := fs.ReadFile(builtinFS, "suites/"+entry.Name())
		if err != nil {
			return nil, err
		}
		s, err := parseManifest(data, "", opts)
		if err != nil {
			return nil, fmt.Errorf("embedded manifest %s: %w", entry.Name(), err)
		}
		out = append(out, *s)
	}
	return out, nil
}
