// Package quota tracks accumulated token consumption per user and enforces
// the generation ceiling. This is a soft abuse deterrent, not billing: the
// generation that crosses the ceiling completes, and racing requests may
// over-charge by one generation's worth of tokens.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/mindrender/mindrender/internal/model"
)

// DefaultCeiling is the per-user token ceiling for non-privileged accounts.
const DefaultCeiling = 10000

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed    bool `json:"allowed"`
	TotalAfter int  `json:"total_after"`
	Limit      int  `json:"limit"`
}

// Ledger enforces the ceiling over an append-only usage-event store.
// The ledger owns the read-check-write sequence and the threshold decision;
// storage belongs to the Store.
type Ledger struct {
	store   Store
	ceiling int
}

// NewLedger creates a Ledger with the given ceiling. A non-positive ceiling
// falls back to the default.
func NewLedger(store Store, ceiling int) *Ledger {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Ledger{store: store, ceiling: ceiling}
}

// Ceiling returns the configured token ceiling.
func (l *Ledger) Ceiling() int {
	return l.ceiling
}

// CheckAndCharge applies the soft-overflow policy: the check runs against
// the total BEFORE this generation, so the generation that pushes the total
// over the ceiling still completes; only the attempt after it is blocked.
//
// Privileged users are charged (events keep accounting honest) but never
// checked against the ceiling.
//
// On rejection the returned error is a *model.QuotaError and nothing is
// charged.
func (l *Ledger) CheckAndCharge(ctx context.Context, prompt model.Prompt, tokens int, privileged bool) (Decision, error) {
	total, err := l.store.SumUsage(ctx, prompt.UserID)
	if err != nil {
		return Decision{}, fmt.Errorf("read usage total: %w", err)
	}

	if !privileged && total >= l.ceiling {
		return Decision{Allowed: false, TotalAfter: total, Limit: l.ceiling},
			&model.QuotaError{Total: total, Limit: l.ceiling}
	}

	event := model.UsageEvent{
		UserID:    prompt.UserID,
		Subject:   prompt.Subject,
		Prompt:    fmt.Sprintf("%s: %s", prompt.Subject, prompt.Text),
		Tokens:    tokens,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.AppendUsageEvent(ctx, event); err != nil {
		return Decision{}, fmt.Errorf("append usage event: %w", err)
	}

	return Decision{Allowed: true, TotalAfter: total + tokens, Limit: l.ceiling}, nil
}

// Total returns the user's current running total.
func (l *Ledger) Total(ctx context.Context, userID string) (int, error) {
	return l.store.SumUsage(ctx, userID)
}
