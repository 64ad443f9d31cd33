package orchestrator

import (
	"regexp"
	"strings"

	"github.com/mindrender/mindrender/internal/model"
)

// An extractor tries one strategy for pulling a section out of a raw model
// reply. Strategies are tried in order, most specific first; appending a new
// fallback never touches the existing ones.
type extractor func(reply string) (string, bool)

var (
	canvasMarkerRe = regexp.MustCompile(`(?is)---CANVAS---\s*(.*?)\s*---SCRIPT---`)
	canvasTagRe    = regexp.MustCompile(`(?is)<canvas[^>]*>.*?</canvas>`)
	scriptMarkerRe = regexp.MustCompile(`(?is)---SCRIPT---\s*(.*?)\s*---EXPLANATION---`)
	scriptTagRe    = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
)

const explanationMarker = "---EXPLANATION---"

var canvasExtractors = []extractor{
	func(reply string) (string, bool) {
		m := canvasMarkerRe.FindStringSubmatch(reply)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(reply string) (string, bool) {
		m := canvasTagRe.FindString(reply)
		return m, m != ""
	},
}

var scriptExtractors = []extractor{
	func(reply string) (string, bool) {
		m := scriptMarkerRe.FindStringSubmatch(reply)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(reply string) (string, bool) {
		m := scriptTagRe.FindStringSubmatch(reply)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
}

// Extract parses a raw model reply into an artifact. Markup and script are
// both required; if either fails through all strategies the whole reply is
// rejected — no partial simulations. The explanation is optional.
func Extract(reply string) (*model.Artifact, error) {
	canvas := runExtractors(canvasExtractors, reply)
	script := runExtractors(scriptExtractors, reply)

	var missing []string
	if canvas == "" {
		missing = append(missing, "canvas")
	}
	if script == "" {
		missing = append(missing, "script")
	}
	if len(missing) > 0 {
		return nil, &model.ExtractionError{Missing: missing}
	}

	return &model.Artifact{
		Markup:      canvas,
		Script:      script,
		Explanation: explanation(reply),
	}, nil
}

func runExtractors(strategies []extractor, reply string) string {
	for _, try := range strategies {
		if out, ok := try(reply); ok && out != "" {
			return out
		}
	}
	return ""
}

func explanation(reply string) string {
	_, after, found := strings.Cut(reply, explanationMarker)
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}
