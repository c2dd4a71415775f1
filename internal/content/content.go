// Package content holds the portfolio records rendered by the site.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/internal/fade"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid marks content that parsed but failed validation.
var ErrInvalid = errors.New("invalid content")

// Category groups projects, certificates and skills.
type Category string

const (
	CategoryAll   Category = "all"
	CategoryData  Category = "data"
	CategoryWeb   Category = "web"
	CategoryOther Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryAll:   "All",
	CategoryData:  "Data Analytics",
	CategoryWeb:   "Web Development",
	CategoryOther: "Other",
}

// Label returns the human readable filter label.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory maps a query value onto a Category, defaulting to all.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := categoryLabels[c]; ok {
		return c
	}
	return CategoryAll
}

type Social struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type Profile struct {
	Name     string   `yaml:"name"`
	Initials string   `yaml:"initials"`
	Headline string   `yaml:"headline"`
	About    string   `yaml:"about"`
	Email    string   `yaml:"email"`
	Phone    string   `yaml:"phone"`
	Location string   `yaml:"location"`
	Socials  []Social `yaml:"socials"`
}

type ProjectLinks struct {
	GitHub    string `yaml:"github"`
	Demo      string `yaml:"demo"`
	CaseStudy string `yaml:"caseStudy"`
}

type Project struct {
	ID              string       `yaml:"id"`
	Title           string       `yaml:"title"`
	Description     string       `yaml:"description"`
	LongDescription string       `yaml:"longDescription"`
	Image           string       `yaml:"image"`
	Category        Category     `yaml:"category"`
	Technologies    []string     `yaml:"technologies"`
	Status          string       `yaml:"status"`
	Links           ProjectLinks `yaml:"links"`
	Featured        bool         `yaml:"featured"`
}

type Certificate struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Issuer      string   `yaml:"issuer"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Category    Category `yaml:"category"`
	Link        string   `yaml:"link"`
	Featured    bool     `yaml:"featured"`
}

type Skill struct {
	Name     string   `yaml:"name"`
	Level    int      `yaml:"level"`
	Years    int      `yaml:"years"`
	Category Category `yaml:"category"`
}

type TimelineItem struct {
	ID           string   `yaml:"id"`
	Type         string   `yaml:"type"`
	Title        string   `yaml:"title"`
	Organization string   `yaml:"organization"`
	Location     string   `yaml:"location"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Description  string   `yaml:"description"`
	Skills       []string `yaml:"skills"`
	Current      bool     `yaml:"current"`
}

// FadeSettings is a section's fade tuning. Keys missing from the YAML keep
// their fade.DefaultConfig values. Durations take Go syntax ("2.5s") or bare
// seconds, matching the data-fade-* attributes.
type FadeSettings struct {
	fade.Config
}

var durationKeys = map[string]bool{"duration": true, "viewTime": true, "animationDelay": true}

func (s *FadeSettings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if !durationKeys[key.Value] || val.Kind != yaml.ScalarNode {
				continue
			}
			if tag := val.ShortTag(); tag == "!!int" || tag == "!!float" {
				val.Value += "s"
				val.Tag = "!!str"
			}
		}
	}
	cfg := fade.DefaultConfig()
	if err := node.Decode(&cfg); err != nil {
		return err
	}
	s.Config = cfg
	return nil
}

// Site is the full set of portfolio content.
type Site struct {
	Profile      Profile                 `yaml:"profile"`
	Sections     map[string]FadeSettings `yaml:"sections"`
	Projects     []Project               `yaml:"projects"`
	Certificates []Certificate           `yaml:"certificates"`
	Skills       []Skill                 `yaml:"skills"`
	Timeline     []TimelineItem          `yaml:"timeline"`
}

// Default returns the embedded content.
func Default() (*Site, error) {
	return Parse(defaultYAML)
}

// Load reads content from path, or the embedded content when path is empty.
func Load(path string) (*Site, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	site, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return site, nil
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

// Validate checks ids, categories and skill levels.
func (s *Site) Validate() error {
	var problems []string

	seen := make(map[string]bool)
	for i, p := range s.Projects {
		if p.ID == "" || seen[p.ID] {
			problems = append(problems, fmt.Sprintf("projects[%d]: missing or duplicate id %q", i, p.ID))
		}
		seen[p.ID] = true
		if p.Category != CategoryData && p.Category != CategoryWeb {
			problems = append(problems, fmt.Sprintf("projects[%d]: unknown category %q", i, p.Category))
		}
		switch p.Status {
		case "completed", "in-progress", "planned":
		default:
			problems = append(problems, fmt.Sprintf("projects[%d]: unknown status %q", i, p.Status))
		}
	}

	seen = make(map[string]bool)
	for i, c := range s.Certificates {
		if c.ID == "" || seen[c.ID] {
			problems = append(problems, fmt.Sprintf("certificates[%d]: missing or duplicate id %q", i, c.ID))
		}
		seen[c.ID] = true
		if c.Category != CategoryData && c.Category != CategoryWeb && c.Category != CategoryOther {
			problems = append(problems, fmt.Sprintf("certificates[%d]: unknown category %q", i, c.Category))
		}
	}

	for i, sk := range s.Skills {
		if sk.Level < 0 || sk.Level > 100 {
			problems = append(problems, fmt.Sprintf("skills[%d]: level %d out of range", i, sk.Level))
		}
		if sk.Category != CategoryData && sk.Category != CategoryWeb {
			problems = append(problems, fmt.Sprintf("skills[%d]: unknown category %q", i, sk.Category))
		}
	}

	for i, t := range s.Timeline {
		switch t.Type {
		case "work", "education", "achievement":
		default:
			problems = append(problems, fmt.Sprintf("timeline[%d]: unknown type %q", i, t.Type))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Fade returns the fade configuration for a section.
func (s *Site) Fade(section string) fade.Config {
	if f, ok := s.Sections[section]; ok {
		return f.Config
	}
	return fade.DefaultConfig()
}

// Filter is one category button with its record count.
type Filter struct {
	Key    Category
	Label  string
	Count  int
	Active bool
}

// FilterProjects returns the projects in a category.
func (s *Site) FilterProjects(c Category) []Project {
	if c == CategoryAll {
		return s.Projects
	}
	var out []Project
	for _, p := range s.Projects {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// FilterCertificates returns the certificates in a category.
func (s *Site) FilterCertificates(c Category) []Certificate {
	if c == CategoryAll {
		return s.Certificates
	}
	var out []Certificate
	for _, cert := range s.Certificates {
		if cert.Category == c {
			out = append(out, cert)
		}
	}
	return out
}

// ProjectFilters lists the project filter buttons.
func (s *Site) ProjectFilters(active Category) []Filter {
	counts := make(map[Category]int)
	for _, p := range s.Projects {
		counts[p.Category]++
	}
	return buildFilters(active, len(s.Projects), counts, CategoryData, CategoryWeb)
}

// CertificateFilters lists the certificate filter buttons.
func (s *Site) CertificateFilters(active Category) []Filter {
	counts := make(map[Category]int)
	for _, c := range s.Certificates {
		counts[c.Category]++
	}
	return buildFilters(active, len(s.Certificates), counts, CategoryData, CategoryWeb, CategoryOther)
}

func buildFilters(active Category, total int, counts map[Category]int, cats ...Category) []Filter {
	filters := []Filter{{Key: CategoryAll, Label: CategoryAll.Label(), Count: total, Active: active == CategoryAll}}
	for _, c := range cats {
		filters = append(filters, Filter{Key: c, Label: c.Label(), Count: counts[c], Active: active == c})
	}
	return filters
}

// Project looks up a project by id.
func (s *Site) Project(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Certificate looks up a certificate by id.
func (s *Site) Certificate(id string) (Certificate, bool) {
	for _, c := range s.Certificates {
		if c.ID == id {
			return c, true
		}
	}
	return Certificate{}, false
}

// FeaturedProjects returns the featured projects.
func (s *Site) FeaturedProjects() []Project {
	var out []Project
	for _, p := range s.Projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// SkillGroup is a titled list of skills, strongest first.
type SkillGroup struct {
	Category Category
	Title    string
	Skills   []Skill
}

// SkillsByCategory groups skills for the skills page.
func (s *Site) SkillsByCategory() []SkillGroup {
	groups := []SkillGroup{
		{Category: CategoryData, Title: CategoryData.Label()},
		{Category: CategoryWeb, Title: CategoryWeb.Label()},
	}
	for i := range groups {
		for _, sk := range s.Skills {
			if sk.Category == groups[i].Category {
				groups[i].Skills = append(groups[i].Skills, sk)
			}
		}
		sort.SliceStable(groups[i].Skills, func(a, b int) bool {
			return groups[i].Skills[a].Level > groups[i].Skills[b].Level
		})
	}
	return groups
}
