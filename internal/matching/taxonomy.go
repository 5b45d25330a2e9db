package matching

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Taxonomy is the controlled skill vocabulary postings are matched
// against. Every skill has a canonical name and optional aliases.
type Taxonomy struct {
	skills []taxonomySkill
}

type taxonomySkill struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`

	patterns []*regexp.Regexp
}

type taxonomyFile struct {
	Skills []taxonomySkill `yaml:"skills"`
}

// DefaultTaxonomy parses the embedded taxonomy file.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomyYAML)
}

// ParseTaxonomy builds a Taxonomy from YAML content.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(file.Skills) == 0 {
		return nil, fmt.Errorf("taxonomy has no skills")
	}

	for i := range file.Skills {
		skill := &file.Skills[i]
		skill.Name = strings.ToLower(strings.TrimSpace(skill.Name))
		if skill.Name == "" {
			return nil, fmt.Errorf("taxonomy entry %d has no name", i)
		}

		terms := append([]string{skill.Name}, skill.Aliases...)
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("taxonomy term %q: %w", term, err)
			}
			skill.patterns = append(skill.patterns, pattern)
		}
	}

	return &Taxonomy{skills: file.Skills}, nil
}

// Extract returns the canonical names of all taxonomy skills mentioned in
// the text, in taxonomy order.
func (t *Taxonomy) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var found []string
	for _, skill := range t.skills {
		for _, pattern := range skill.patterns {
			if pattern.MatchString(text) {
				found = append(found, skill.Name)
				break
			}
		}
	}
	return found
}

// Canonical resolves a skill name or alias to its canonical form, or
// returns the lowercased input when the taxonomy does not know it.
func (t *Taxonomy) Canonical(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, skill := range t.skills {
		if skill.Name == lower {
			return skill.Name
		}
		for _, alias := range skill.Aliases {
			if strings.EqualFold(alias, lower) {
				return skill.Name
			}
		}
	}
	return lower
}
