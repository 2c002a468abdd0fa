package services

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed skills.yaml
var defaultSkillsYAML []byte

const (
	// Characters that count as part of a skill token when checking boundaries,
	// so that "c" does not match inside "c++" or "c#".
	skillWordChars = `a-z0-9_+#`
	skillBoundaryL = `(?:^|[^` + skillWordChars + `])`
	skillBoundaryR = `(?:$|[^` + skillWordChars + `])`
)

var (
	skillSectionHeader = regexp.MustCompile(`(?s)(?:skills|technologies|expertise|competencies|tech stack|toolset)[:\s]+(.*?)(?:\n\s*\n|\z)`)
	skillTokenSplit    = regexp.MustCompile(`[,;•·▪●◦■|\n\t]+`)
	skillForbidden     = regexp.MustCompile(`[|\\\[\]{}@$%^&*<>]`)
	hasAlnum           = regexp.MustCompile(`[\p{L}\p{N}]`)
)

type SkillEntry struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Category string   `yaml:"-"`
}

func (e *SkillEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Name = value.Value
		return nil
	}

	type plain SkillEntry
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = SkillEntry(p)
	return nil
}

type skillsFile struct {
	Categories []struct {
		Name   string       `yaml:"name"`
		Skills []SkillEntry `yaml:"skills"`
	} `yaml:"categories"`
}

type compiledSkill struct {
	name     string
	aliases  []string
	patterns []*regexp.Regexp
}

// SkillDictionary is an ordered list of skills with their whole-word
// patterns compiled once.
type SkillDictionary struct {
	skills  []compiledSkill
	byAlias map[string]string
}

// LoadSkillDictionary reads a dictionary from path, or the embedded default when path is empty.
func LoadSkillDictionary(path string) (*SkillDictionary, error) {
	data := defaultSkillsYAML
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read skills file: %w", err)
		}
		data = raw
	}
	return ParseSkillDictionary(data)
}

// DefaultSkillDictionary returns the embedded dictionary. It panics only if
// the embedded file is broken.
func DefaultSkillDictionary() *SkillDictionary {
	dict, err := ParseSkillDictionary(defaultSkillsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded skills dictionary: %v", err))
	}
	return dict
}

func ParseSkillDictionary(data []byte) (*SkillDictionary, error) {
	var file skillsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse skills dictionary: %w", err)
	}

	var entries []SkillEntry
	for _, category := range file.Categories {
		for _, entry := range category.Skills {
			entry.Category = category.Name
			entries = append(entries, entry)
		}
	}

	return NewSkillDictionary(entries)
}

func NewSkillDictionary(entries []SkillEntry) (*SkillDictionary, error) {
	dict := &SkillDictionary{byAlias: make(map[string]string)}
	seen := make(map[string]bool)

	for _, entry := range entries {
		name := normalizeSkill(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("skill entry in category %q has no name", entry.Category)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		cs := compiledSkill{name: name}
		for _, alias := range append([]string{name}, entry.Aliases...) {
			alias = normalizeSkill(alias)
			if alias == "" {
				continue
			}
			if _, taken := dict.byAlias[alias]; !taken {
				dict.byAlias[alias] = name
			}
			cs.aliases = append(cs.aliases, alias)
			cs.patterns = append(cs.patterns, skillPattern(alias))
		}
		dict.skills = append(dict.skills, cs)
	}

	return dict, nil
}

func skillPattern(alias string) *regexp.Regexp {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(alias), " ", `\s+`)
	return regexp.MustCompile(skillBoundaryL + quoted + skillBoundaryR)
}

// Names returns the canonical skill names in dictionary order.
func (d *SkillDictionary) Names() []string {
	names := make([]string, len(d.skills))
	for i, s := range d.skills {
		names[i] = s.name
	}
	return names
}

func (d *SkillDictionary) Len() int { return len(d.skills) }

// Canonical maps an alias to its canonical name.
func (d *SkillDictionary) Canonical(alias string) (string, bool) {
	name, ok := d.byAlias[normalizeSkill(alias)]
	return name, ok
}

// ExtractSkills finds skills by whole-word dictionary matches plus any
// explicit skills section. The result is lower case, deduplicated and sorted.
func (d *SkillDictionary) ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	found := make(map[string]struct{})

	for _, s := range d.skills {
		for _, p := range s.patterns {
			if p.MatchString(lower) {
				found[s.name] = struct{}{}
				break
			}
		}
	}

	for _, token := range sectionTokens(lower) {
		if name, ok := d.byAlias[token]; ok {
			found[name] = struct{}{}
			continue
		}
		if len(token) <= 3 {
			continue
		}
		for _, s := range d.skills {
			if d.fuzzyAdd(found, s, token) {
				break
			}
		}
	}

	return sortedKeys(found)
}

func (d *SkillDictionary) fuzzyAdd(found map[string]struct{}, s compiledSkill, token string) bool {
	for _, alias := range s.aliases {
		if len(alias) <= 3 {
			continue
		}
		switch {
		case strings.Contains(token, alias):
			found[token] = struct{}{}
			return true
		case strings.Contains(alias, token):
			found[s.name] = struct{}{}
			return true
		}
	}
	return false
}

func sectionTokens(lower string) []string {
	var tokens []string
	for _, m := range skillSectionHeader.FindAllStringSubmatch(lower, -1) {
		for _, raw := range skillTokenSplit.Split(m[1], -1) {
			token := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "-*+>"))
			token = strings.TrimRight(token, ".:")
			if len(token) > 40 || len(strings.Fields(token)) > 4 {
				continue
			}
			if !isCleanSkill(token) {
				continue
			}
			tokens = append(tokens, normalizeSkill(token))
		}
	}
	return tokens
}

// CleanSkills normalizes a raw skill list (from a model or a form): lower
// case, whitespace collapsed, junk dropped, duplicates removed, sorted.
func CleanSkills(raw []string) []string {
	found := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = normalizeSkill(s)
		if !isCleanSkill(s) {
			continue
		}
		found[s] = struct{}{}
	}
	return sortedKeys(found)
}

func isCleanSkill(s string) bool {
	if s == "" || len(s) > 60 {
		return false
	}
	if !hasAlnum.MatchString(s) {
		return false
	}
	return !skillForbidden.MatchString(s) && strings.Count(s, "/") <= 1
}

func normalizeSkill(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
