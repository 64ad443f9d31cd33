package moderation

// DefaultPatterns contains the hardcoded gate patterns.
// The blocklist covers sexual, violent, hateful, and drug-related content.
var DefaultPatterns = Patterns{
	Blocked: []string{
		"sexual",
		"sex",
		"intercourse",
		"intimacy",
		"nude",
		"naked",
		"porn",
		"erotic",
		"kill",
		"murder",
		"blood",
		"gore",
		"racist",
		"nazi",
		"hate crime",
		"suicide",
		"self-harm",
		"drug dealing",
		"meth",
		"cocaine",
		"kiss",
		"kissing",
	},
	Keywords: []string{
		"explain",
		"visualize",
		"simulate",
		"demonstrate",
		"illustrate",
		"teach",
		"understand",
		"learn",
		"model",
		"concept",
		"how",
		"why",
		"what",
		"effect",
		"impact",
	},
	Phrases: []string{
		`how\s+.*\s+works`,
		`simulate\s+.*\s+concept`,
		`educational\s+(activity|model)`,
		`visualize\s+(the)?\s+process`,
	},
	Unavailable: []string{
		"mathematics",
		"chemistry",
		"math",
		"chem",
	},
	CarveOuts: map[string]string{
		"Biology": `\b(reproduction|fertilization)\b`,
	},
	MinLength: 10,
	MaxLength: 500,
}
