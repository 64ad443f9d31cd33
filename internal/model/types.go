package model

import "time"

// Subject is the curriculum area a simulation is generated for.
type Subject string

const (
	SubjectPhysics Subject = "Physics"
	SubjectBiology Subject = "Biology"
	SubjectCompSci Subject = "Computer Science"
)

// DefaultSubject is assumed when a request does not name one.
const DefaultSubject = SubjectPhysics

// KnownSubjects lists the subjects the product currently generates for.
var KnownSubjects = []Subject{SubjectPhysics, SubjectBiology, SubjectCompSci}

// IsKnown reports whether s is one of the supported subjects.
func (s Subject) IsKnown() bool {
	for _, k := range KnownSubjects {
		if s == k {
			return true
		}
	}
	return false
}

// Prompt is a user-submitted generation request. Immutable once built;
// it lives for the duration of a single request.
type Prompt struct {
	Text    string  `json:"text"`
	Subject Subject `json:"subject"`
	UserID  string  `json:"user_id"`
}

// Verdict is the outcome of the moderation gate. Reason is user-facing
// and empty when the prompt is accepted.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Usage is the token consumption reported by the model provider for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined token count charged against the quota.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Artifact is the structured result parsed from a model reply.
// Markup and Script are both non-empty for any artifact handed downstream;
// extraction fails closed rather than producing a partial artifact.
type Artifact struct {
	Markup      string `json:"markup"`
	Script      string `json:"script"`
	Explanation string `json:"explanation"`
}

// User is the authenticated principal resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UsageEvent is one append-only row in the quota ledger.
type UsageEvent struct {
	UserID    string    `json:"user_id"`
	Subject   Subject   `json:"subject"`
	Prompt    string    `json:"prompt"`
	Tokens    int       `json:"tokens_used"`
	CreatedAt time.Time `json:"created_at"`
}
