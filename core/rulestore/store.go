// Package rulestore defines persistence for autorun override rules.
package rulestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classboard/classboard/core/model"
)

// Store persists override rules. Writes are serialized per identifier by the
// implementation; reads may run concurrently against a snapshot.
type Store interface {
	// FetchAll returns every stored rule ordered by (priority desc, id desc).
	FetchAll(ctx context.Context) ([]model.OverrideRule, error)

	// Upsert inserts or replaces a rule. An empty id derives the identifier
	// deterministically from (kind, scope, priority, payload) so identical
	// rules collapse to one record. The status column is recomputed on write.
	// Returns the identifier of the written row.
	Upsert(ctx context.Context, kind model.RuleKind, scope []string, priority int, payload json.RawMessage, id string) (string, error)

	// Delete removes a rule by id and returns the number of affected rows.
	// Deleting an unknown id affects zero rows and is not an error.
	Delete(ctx context.Context, id string) (int64, error)

	// RefreshStatuses re-derives the lifecycle status of every rule for the
	// given day and persists the rows that changed, returning their count.
	RefreshStatuses(ctx context.Context, today time.Time) (int, error)

	Close() error
}
