// Package params is the catalog of known output parameters: their storage
// type, units and CF standard name.
package params

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/banshee-data/ctdconvert/internal/fsutil"
)

//go:embed params.csv
var embedded embed.FS

// DefaultType is reported for names the catalog does not know.
const DefaultType = "float"

var validTypes = map[string]bool{"float": true, "double": true, "int": true, "char": true}

// Parameter is one catalog entry.
type Parameter struct {
	Name         string
	Type         string
	Units        string
	StandardName string
	LongName     string
}

// Catalog maps parameter names to their definitions.
type Catalog struct {
	byName map[string]Parameter
}

// numbered matches secondary-sensor names such as TEMP_2.
var numbered = regexp.MustCompile(`^(.+)_(\d+)$`)

// Lookup returns the named parameter. Secondary-sensor names fall back to
// their base name.
func (c *Catalog) Lookup(name string) (Parameter, bool) {
	if p, ok := c.byName[name]; ok {
		return p, true
	}
	if m := numbered.FindStringSubmatch(name); m != nil {
		if p, ok := c.byName[m[1]]; ok {
			p.Name = name
			return p, true
		}
	}
	return Parameter{}, false
}

// Type returns the output type for name, DefaultType when unknown.
func (c *Catalog) Type(name string) string {
	if p, ok := c.Lookup(name); ok {
		return p.Type
	}
	return DefaultType
}

// Len is the number of catalog entries.
func (c *Catalog) Len() int { return len(c.byName) }

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	f, err := embedded.Open("params.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded parameter catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// LoadFile reads a catalog from path.
func LoadFile(fs fsutil.FileSystem, path string) (*Catalog, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parameter catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a catalog CSV with a name,type,units,standard_name,long_name
// header row.
func Load(r io.Reader) (*Catalog, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter catalog: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data in parameter catalog")
	}

	head := records[0]
	if len(head) < 2 || strings.ToLower(head[0]) != "name" || strings.ToLower(head[1]) != "type" {
		return nil, fmt.Errorf("invalid header in parameter catalog, expected: name,type,...")
	}

	c := &Catalog{byName: make(map[string]Parameter, len(records)-1)}
	for i, rec := range records[1:] {
		p := Parameter{Name: strings.TrimSpace(rec[0]), Type: strings.ToLower(strings.TrimSpace(rec[1]))}
		if p.Name == "" {
			return nil, fmt.Errorf("empty parameter name at line %d", i+2)
		}
		if !validTypes[p.Type] {
			return nil, fmt.Errorf("invalid type %q for %s at line %d", rec[1], p.Name, i+2)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %s at line %d", p.Name, i+2)
		}
		if len(rec) > 2 {
			p.Units = rec[2]
		}
		if len(rec) > 3 {
			p.StandardName = rec[3]
		}
		if len(rec) > 4 {
			p.LongName = rec[4]
		}
		c.byName[p.Name] = p
	}
	return c, nil
}
