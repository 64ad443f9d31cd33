// Package moderation is the pre-generation content gate. It is a cheap,
// recall-oriented pre-filter that runs before any model tokens are spent —
// not a classifier, and false positives/negatives are expected.
package moderation

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mindrender/mindrender/internal/model"
)

// Patterns holds the raw gate configuration, organized by concern.
type Patterns struct {
	// Blocked terms are matched case-insensitively on word boundaries.
	Blocked []string `yaml:"blocked"`
	// Keywords and Phrases form the educational-intent heuristic:
	// a prompt passes if it contains any keyword or matches any phrase.
	Keywords []string `yaml:"keywords"`
	Phrases  []string `yaml:"phrases"`
	// Unavailable are subject names we do not generate for yet.
	Unavailable []string `yaml:"unavailable"`
	// CarveOuts map a subject to a regex that exempts matching prompts
	// from the blocklist, so legitimate curriculum content
	// (e.g. Biology reproduction) is not filtered out.
	CarveOuts map[string]string `yaml:"carve_outs"`
	MinLength int               `yaml:"min_length"`
	MaxLength int               `yaml:"max_length"`
}

// Gate holds compiled patterns for fast, allocation-free evaluation.
// Evaluate is a pure function of its inputs; a Gate is safe for
// concurrent use once constructed.
type Gate struct {
	blocked   []*regexp.Regexp
	keywords  []string
	phrases   []*regexp.Regexp
	carveOuts map[model.Subject]*regexp.Regexp
	unavail   []string
	minLen    int
	maxLen    int
}

// New creates a Gate from raw patterns, compiling regexes. Patterns that
// fail to compile are skipped rather than failing construction.
func New(p Patterns) *Gate {
	g := &Gate{
		minLen:    p.MinLength,
		maxLen:    p.MaxLength,
		carveOuts: make(map[model.Subject]*regexp.Regexp),
	}
	if g.minLen <= 0 {
		g.minLen = 10
	}
	if g.maxLen <= 0 {
		g.maxLen = 500
	}

	for _, term := range p.Blocked {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err == nil {
			g.blocked = append(g.blocked, re)
		}
	}

	for _, k := range p.Keywords {
		g.keywords = append(g.keywords, strings.ToLower(k))
	}

	for _, ph := range p.Phrases {
		re, err := regexp.Compile("(?i)" + ph)
		if err == nil {
			g.phrases = append(g.phrases, re)
		}
	}

	for subject, pattern := range p.CarveOuts {
		re, err := regexp.Compile("(?i)" + pattern)
		if err == nil {
			g.carveOuts[model.Subject(subject)] = re
		}
	}

	for _, u := range p.Unavailable {
		if u = strings.TrimSpace(strings.ToLower(u)); u != "" {
			g.unavail = append(g.unavail, u)
		}
	}

	return g
}

// NewDefault creates a Gate with the hardcoded default patterns.
func NewDefault() *Gate {
	return New(DefaultPatterns)
}

// Load reads gate patterns from a YAML file. Falls back to defaults if the
// path is empty or the file doesn't exist.
func Load(path string) (*Gate, error) {
	if path == "" {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, err
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return New(p), nil
}

// Evaluate gates a raw prompt before any model call. Checks run in order,
// first failure wins, and every rejection carries a specific user-facing
// reason. No side effects.
func (g *Gate) Evaluate(prompt string, subject model.Subject) model.Verdict {
	lower := strings.ToLower(prompt)

	if !g.carvedOut(lower, subject) {
		for _, re := range g.blocked {
			if re.MatchString(prompt) {
				return reject("Please keep content strictly scientific and non-sexual.")
			}
		}
	}

	if hint := g.unavailableSubject(lower, subject); hint != "" {
		return reject(hint + " simulations will be available in future updates. Currently available: Physics, Biology, and Computer Science.")
	}

	if !g.likelyEducational(prompt, lower) {
		return reject("Only educational simulations are supported. Please rephrase your prompt to focus on explaining or demonstrating a concept.")
	}

	if len(strings.TrimSpace(prompt)) < g.minLen {
		return reject("Please provide more detail (≥ 10 characters).")
	}
	if len(prompt) > g.maxLen {
		return reject("Please keep your prompt under 500 characters.")
	}

	return model.Verdict{Accepted: true}
}

// carvedOut reports whether the subject's carve-out exempts this prompt
// from the blocklist entirely.
func (g *Gate) carvedOut(lower string, subject model.Subject) bool {
	re := g.carveOuts[subject]
	return re != nil && re.MatchString(lower)
}

// likelyEducational is the educational-intent heuristic: any pedagogical
// keyword or phrase pattern passes.
func (g *Gate) likelyEducational(prompt, lower string) bool {
	for _, k := range g.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, re := range g.phrases {
		if re.MatchString(prompt) {
			return true
		}
	}
	return false
}

// unavailableSubject returns a capitalized subject name if the prompt asks
// for a subject we don't generate for, unless it also names the selected
// subject (the user is allowed to mention chemistry in a Physics prompt
// about, say, "physics of chemistry lab explosions" — the selected subject
// wins).
func (g *Gate) unavailableSubject(lower string, subject model.Subject) string {
	selected := strings.ToLower(string(subject))
	for _, u := range g.unavail {
		if strings.Contains(lower, u) && !strings.Contains(lower, selected) {
			return strings.ToUpper(u[:1]) + u[1:]
		}
	}
	return ""
}

func reject(reason string) model.Verdict {
	return model.Verdict{Accepted: false, Reason: reason}
}
