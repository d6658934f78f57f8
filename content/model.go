// Package content holds the read-only galaxy catalog that everything else
// navigates: galaxies, their ordered projects, and named tours.
//
// A Catalog is built once at load time and never mutated afterwards. Every
// lookup returns copies or read-only slices; callers must not modify them.
package content

import (
	"fmt"
	"strings"
)

// SizeTier is a project's relative importance. It drives planet scale in
// presentation layers and nothing in the navigation core.
type SizeTier int

const (
	Small SizeTier = iota
	Medium
	Large
	Supermassive
)

var sizeNames = [...]string{"small", "medium", "large", "supermassive"}

func (s SizeTier) String() string {
	if s < Small || s > Supermassive {
		return "unknown"
	}
	return sizeNames[s]
}

// Multiplier returns the render scale for the tier.
func (s SizeTier) Multiplier() float32 {
	switch s {
	case Supermassive:
		return 3.0
	case Large:
		return 1.8
	case Medium:
		return 1.2
	default:
		return 0.8
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SizeTier) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Both yaml.v3 and
// encoding/json route scalar decoding through it.
func (s *SizeTier) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range sizeNames {
		if n == name {
			*s = SizeTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown size tier %q", string(text))
}

// Link is an outbound reference shown in the info panel.
type Link struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// Metric is a free-form headline number ("tests: 1,200").
type Metric struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Project is a leaf content entity. Galaxy is filled in from the owning
// galaxy at load time; it is never read from the file.
type Project struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Role        string   `yaml:"role" json:"role,omitempty"`
	Company     string   `yaml:"company" json:"company,omitempty"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
	Color       string   `yaml:"color" json:"color,omitempty"`
	Brightness  float32  `yaml:"brightness" json:"brightness,omitempty"`
	Size        SizeTier `yaml:"size" json:"size"`
	Featured    bool     `yaml:"featured" json:"featured"`
	DateRange   string   `yaml:"date_range" json:"date_range,omitempty"`
	Links       []Link   `yaml:"links" json:"links,omitempty"`
	Metrics     []Metric `yaml:"metrics" json:"metrics,omitempty"`
	Galaxy      string   `yaml:"-" json:"galaxy"`
}

// Galaxy is a thematic cluster with an ordered list of projects.
type Galaxy struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Color       string    `yaml:"color" json:"color"`
	Size        float32   `yaml:"size" json:"size,omitempty"`
	Projects    []Project `yaml:"projects" json:"projects"`
}

// Featured returns the galaxy's representative project: the first featured
// one, else the first one. ok is false for an empty galaxy.
func (g Galaxy) Featured() (Project, bool) {
	for _, p := range g.Projects {
		if p.Featured {
			return p, true
		}
	}
	if len(g.Projects) == 0 {
		return Project{}, false
	}
	return g.Projects[0], true
}

// TourStop names one project of a narrative tour and the text shown there.
type TourStop struct {
	ProjectID string `yaml:"project" json:"project"`
	Narrative string `yaml:"narrative" json:"narrative,omitempty"`
}

// Tour is an authored, ordered walk through projects. Stops may reference
// projects that do not exist; resolution skips them.
type Tour struct {
	ID    string     `yaml:"id" json:"id"`
	Title string     `yaml:"title" json:"title"`
	Stops []TourStop `yaml:"stops" json:"stops"`
}

// Ref locates a project inside the catalog. It carries exactly the indexes
// the layout generator needs.
type Ref struct {
	GalaxyID     string
	GalaxyIndex  int
	ProjectIndex int
	Total        int
}
