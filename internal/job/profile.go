package job

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Profile holds the candidate's skills, experience and targets. It is
// owned by the user and mutated only through explicit profile edits.
type Profile struct {
	ID              string            `json:"id,omitempty" yaml:"id"`
	Skills          []string          `json:"skills,omitempty" yaml:"skills"`
	Experience      []ExperienceEntry `json:"experience,omitempty" yaml:"experience"`
	TargetSalary    float64           `json:"target_salary,omitempty" yaml:"target_salary"`
	TargetLocations []string          `json:"target_locations,omitempty" yaml:"target_locations"`
	Contact         ContactInfo       `json:"contact,omitempty" yaml:"contact"`
	CVText          string            `json:"cv_text,omitempty" yaml:"cv_text"`
}

type ExperienceEntry struct {
	Title   string  `json:"title,omitempty" yaml:"title"`
	Company string  `json:"company,omitempty" yaml:"company"`
	Years   float64 `json:"years,omitempty" yaml:"years"`
}

type ContactInfo struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Email    string `json:"email,omitempty" yaml:"email"`
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin"`
}

// HasSkill reports whether the profile lists the skill, case-insensitively.
func (p *Profile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// YearsOfExperience sums the duration of all experience entries.
func (p *Profile) YearsOfExperience() float64 {
	var total float64
	for _, e := range p.Experience {
		total += e.Years
	}
	return total
}

// SnapshotHash returns a deterministic digest of the match-relevant
// profile fields. Two profiles with the same skills and targets hash
// identically regardless of field order.
func (p *Profile) SnapshotHash() string {
	skills := make([]string, len(p.Skills))
	for i, s := range p.Skills {
		skills[i] = strings.ToLower(strings.TrimSpace(s))
	}
	sort.Strings(skills)

	locations := make([]string, len(p.TargetLocations))
	for i, l := range p.TargetLocations {
		locations[i] = strings.ToLower(strings.TrimSpace(l))
	}
	sort.Strings(locations)

	h := sha256.New()
	h.Write([]byte(strings.Join(skills, "\n")))
	h.Write([]byte(strings.Join(locations, "\n")))
	fmt.Fprintf(h, "%.2f", p.TargetSalary)

	return hex.EncodeToString(h.Sum(nil))
}
