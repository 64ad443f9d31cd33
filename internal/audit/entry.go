package audit

// Decision values recorded for a generation request.
const (
	DecisionGenerated = "generated"
	DecisionBlocked   = "blocked"
	DecisionQuota     = "quota_exceeded"
	DecisionFailed    = "failed"
)

// Entry is one line in the hash-chained JSONL generation log. Fields are
// flat structs rather than maps so json.Marshal order is deterministic and
// line hashes are reproducible.
type Entry struct {
	Timestamp string `json:"ts"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Subject   string `json:"subject"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	Tokens    int    `json:"tokens,omitempty"`
	PrevHash  string `json:"prev_hash"`
}
