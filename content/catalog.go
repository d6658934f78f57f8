package content

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateID is returned when two galaxies, two projects or two
	// tours share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrSchema wraps every schema violation.
	ErrSchema = errors.New("catalog does not match schema")
)

//go:embed catalog.schema.json
var schemaText string

//go:embed default.yaml
var defaultCatalog []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("catalog.schema.json", schemaText)
	})
	return schema, schemaErr
}

// Catalog is the immutable, indexed content set.
type Catalog struct {
	galaxies []Galaxy
	tours    []Tour

	galaxyIdx  map[string]int
	projectIdx map[string]Ref
	tourIdx    map[string]int

	digest string
}

type catalogFile struct {
	Galaxies []Galaxy `yaml:"galaxies"`
	Tours    []Tour   `yaml:"tours"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse validates raw YAML against the catalog schema and builds the indexes.
func Parse(raw []byte) (*Catalog, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c, err := build(f.Galaxies, f.Tours)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	c.digest = hex.EncodeToString(sum[:])
	return c, nil
}

// validate runs the schema over a JSON-shaped copy of the document.
// yaml.v3 decodes mappings with string keys into map[string]any, so a
// json round trip is enough to get the value model the validator expects.
func validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrSchema)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// New builds a catalog from values. Used by tests and by callers that
// assemble content in code.
func New(galaxies []Galaxy, tours []Tour) (*Catalog, error) {
	return build(galaxies, tours)
}

func build(galaxies []Galaxy, tours []Tour) (*Catalog, error) {
	// Derived fields are filled in on copies; the caller's slices stay as given.
	owned := make([]Galaxy, len(galaxies))
	for i, g := range galaxies {
		g.Projects = append([]Project(nil), g.Projects...)
		owned[i] = g
	}
	c := &Catalog{
		galaxies:   owned,
		tours:      append([]Tour(nil), tours...),
		galaxyIdx:  make(map[string]int, len(galaxies)),
		projectIdx: make(map[string]Ref),
		tourIdx:    make(map[string]int, len(tours)),
	}

	for gi := range c.galaxies {
		g := &c.galaxies[gi]
		if _, dup := c.galaxyIdx[g.ID]; dup {
			return nil, fmt.Errorf("galaxy %q: %w", g.ID, ErrDuplicateID)
		}
		c.galaxyIdx[g.ID] = gi

		for pi := range g.Projects {
			p := &g.Projects[pi]
			if prev, dup := c.projectIdx[p.ID]; dup {
				return nil, fmt.Errorf("project %q in %q and %q: %w", p.ID, prev.GalaxyID, g.ID, ErrDuplicateID)
			}
			p.Galaxy = g.ID
			if p.Color == "" {
				p.Color = g.Color
			}
			c.projectIdx[p.ID] = Ref{
				GalaxyID:     g.ID,
				GalaxyIndex:  gi,
				ProjectIndex: pi,
				Total:        len(g.Projects),
			}
		}
	}

	for ti, t := range c.tours {
		if _, dup := c.tourIdx[t.ID]; dup {
			return nil, fmt.Errorf("tour %q: %w", t.ID, ErrDuplicateID)
		}
		c.tourIdx[t.ID] = ti
	}
	return c, nil
}

// Galaxies returns all galaxies in catalog order.
func (c *Catalog) Galaxies() []Galaxy {
	return c.galaxies
}

// Len is the number of galaxies.
func (c *Catalog) Len() int {
	return len(c.galaxies)
}

// GalaxyAt returns the galaxy at ordinal i.
func (c *Catalog) GalaxyAt(i int) (Galaxy, bool) {
	if i < 0 || i >= len(c.galaxies) {
		return Galaxy{}, false
	}
	return c.galaxies[i], true
}

// Galaxy looks a galaxy up by id and returns its ordinal.
func (c *Catalog) Galaxy(id string) (Galaxy, int, bool) {
	i, ok := c.galaxyIdx[id]
	if !ok {
		return Galaxy{}, -1, false
	}
	return c.galaxies[i], i, true
}

// Project looks a project up by id.
func (c *Catalog) Project(id string) (Project, Ref, bool) {
	ref, ok := c.projectIdx[id]
	if !ok {
		return Project{}, Ref{}, false
	}
	return c.galaxies[ref.GalaxyIndex].Projects[ref.ProjectIndex], ref, true
}

// HasGalaxy reports whether id names a galaxy.
func (c *Catalog) HasGalaxy(id string) bool {
	_, ok := c.galaxyIdx[id]
	return ok
}

// ProjectGalaxy returns the id of the galaxy owning project id.
func (c *Catalog) ProjectGalaxy(id string) (string, bool) {
	ref, ok := c.projectIdx[id]
	return ref.GalaxyID, ok
}

// Projects returns every project, galaxy by galaxy, in catalog order.
func (c *Catalog) Projects() []Project {
	out := make([]Project, 0, len(c.projectIdx))
	for _, g := range c.galaxies {
		out = append(out, g.Projects...)
	}
	return out
}

// Tours returns the named tours in file order.
func (c *Catalog) Tours() []Tour {
	return c.tours
}

// Tour looks a named tour up by id.
func (c *Catalog) Tour(id string) (Tour, bool) {
	i, ok := c.tourIdx[id]
	if !ok {
		return Tour{}, false
	}
	return c.tours[i], true
}

// Digest is the hex sha256 of the source document, empty for catalogs
// built with New.
func (c *Catalog) Digest() string {
	return c.digest
}
