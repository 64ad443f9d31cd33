package orchestrator

import (
	"errors"
	"testing"

	"github.com/mindrender/mindrender/internal/model"
)

const wellFormedReply = `Here is your simulation.
---CANVAS---
<canvas id="sim" width="800" height="600"></canvas>
---SCRIPT---
const canvas = document.getElementById('sim');
const ctx = canvas.getContext('2d');
---EXPLANATION---
This simulation shows a pendulum.`

func TestExtractRoundTrip(t *testing.T) {
	a, err := Extract(wellFormedReply)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if a.Markup != `<canvas id="sim" width="800" height="600"></canvas>` {
		t.Errorf("markup = %q", a.Markup)
	}
	want := "const canvas = document.getElementById('sim');\nconst ctx = canvas.getContext('2d');"
	if a.Script != want {
		t.Errorf("script = %q", a.Script)
	}
	if a.Explanation != "This simulation shows a pendulum." {
		t.Errorf("explanation = %q", a.Explanation)
	}
}

func TestExtractMarkersCaseInsensitive(t *testing.T) {
	reply := "---canvas---\n<canvas></canvas>\n---script---\nlet x = 1;\n---explanation---\ndone"
	a, err := Extract(reply)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if a.Markup != "<canvas></canvas>" || a.Script != "let x = 1;" {
		t.Errorf("artifact = %+v", a)
	}
}

func TestExtractCanvasTagFallback(t *testing.T) {
	reply := `No markers here, just tags:
<canvas id="sim" width="640" height="480"></canvas>
<script>
draw();
</script>`
	a, err := Extract(reply)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if a.Markup != `<canvas id="sim" width="640" height="480"></canvas>` {
		t.Errorf("markup = %q", a.Markup)
	}
	if a.Script != "draw();" {
		t.Errorf("script = %q", a.Script)
	}
	if a.Explanation != "" {
		t.Errorf("explanation should be empty without marker, got %q", a.Explanation)
	}
}

func TestExtractMissingScriptFailsClosed(t *testing.T) {
	reply := "---CANVAS---\n<canvas></canvas>\nno script marker, no script tag"
	_, err := Extract(reply)
	var xerr *model.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if len(xerr.Missing) != 1 || xerr.Missing[0] != "script" {
		t.Errorf("missing = %v", xerr.Missing)
	}
}

func TestExtractMissingBothFailsClosed(t *testing.T) {
	_, err := Extract("the model rambled and produced nothing usable")
	var xerr *model.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if len(xerr.Missing) != 2 {
		t.Errorf("missing = %v", xerr.Missing)
	}
}

func TestExtractEmptyMarkerSectionFallsThrough(t *testing.T) {
	// Empty marker-delimited section must not satisfy extraction; the tag
	// fallback picks it up instead.
	reply := "---CANVAS---\n---SCRIPT---\nlet a = 1;\n---EXPLANATION---\nx\n<canvas id=\"c\"></canvas>"
	a, err := Extract(reply)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if a.Markup != `<canvas id="c"></canvas>` {
		t.Errorf("markup = %q", a.Markup)
	}
}

func TestExplanationAbsentMarker(t *testing.T) {
	if got := explanation("no marker at all"); got != "" {
		t.Errorf("explanation = %q", got)
	}
}
