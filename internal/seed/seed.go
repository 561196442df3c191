// Package seed imports a catalog of personalities from a YAML document.
//
//	personalities:
//	  - name: Jisoo
//	    groups: [BLACKPINK]
//	    images:
//	      - https://example.org/jisoo-1.png
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"gopkg.in/yaml.v3"
)

// Entry is one personality of the seed file
type Entry struct {
	Name   string   `yaml:"name"`
	Groups []string `yaml:"groups"`
	Images []string `yaml:"images"`
}

// Catalog is the root of the seed file
type Catalog struct {
	Personalities []Entry `yaml:"personalities"`
}

// Report counts what an import did
type Report struct {
	Added   int
	Skipped int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	for i, e := range c.Personalities {
		if e.Name == "" {
			return nil, fmt.Errorf("personality %d has no name", i+1)
		}
		if len(e.Groups) == 0 {
			return nil, fmt.Errorf("personality %q has no group", e.Name)
		}
	}
	return &c, nil
}

// ParseFile reads and decodes the seed file at path
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Import adds every entry through the catalog service. Entries whose name is
// already used in one of their groups are skipped, so importing twice is safe.
func Import(ctx context.Context, catalog gacha.CatalogServiceInterface, c *Catalog) (Report, error) {
	var report Report
	for _, e := range c.Personalities {
		_, err := catalog.Add(ctx, e.Name, e.Groups, e.Images)
		switch {
		case errors.Is(err, shared.ErrDuplicate):
			report.Skipped++
		case err != nil:
			return report, fmt.Errorf("add %q: %w", e.Name, err)
		default:
			report.Added++
		}
	}
	return report, nil
}
