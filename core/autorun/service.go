package autorun

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/rulestore"
	"github.com/classboard/classboard/internal/eventbus"
)

// RuleView is the decoded listing shape served to the admin UI.
type RuleView struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Scope    []string        `json:"scope"`
	Content  json.RawMessage `json:"content"`
	Priority int             `json:"priority"`
	Status   string          `json:"status"`
}

// Service couples the rule store with validation, lifecycle refresh and
// change notification. It is the single entry point for rule mutations.
type Service struct {
	store     rulestore.Store
	validator *Validator
	bus       eventbus.EventBus
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a rule service. The bus may be nil in tests; mutations are
// then silent.
func NewService(store rulestore.Store, validator *Validator, bus eventbus.EventBus, log logger.Logger) *Service {
	return &Service{store: store, validator: validator, bus: bus, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List refreshes lifecycle statuses and returns every rule in display order
// with its payload decoded. Rules whose payload no longer decodes are listed
// with their raw payload so they stay visible and deletable.
func (s *Service) List(ctx context.Context) ([]RuleView, error) {
	if _, err := s.store.RefreshStatuses(ctx, s.now()); err != nil {
		return nil, err
	}
	rules, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		content := unwrapPayload(r.Payload)
		views = append(views, RuleView{
			ID:       r.ID,
			Kind:     r.Kind.String(),
			Scope:    r.Scope,
			Content:  content,
			Priority: r.Priority,
			Status:   r.Status.String(),
		})
	}
	return views, nil
}

// Upsert validates and persists a rule, returning the stored identifier.
// An empty id creates or collapses onto the deterministic identifier; a
// supplied id replaces that record in place.
func (s *Service) Upsert(ctx context.Context, kind model.RuleKind, scopes []string, priority int, payload json.RawMessage, id string) (string, error) {
	rule, err := Decode(kind, payload)
	if err != nil {
		return "", err
	}
	if err := s.validator.Validate(ctx, rule, scopes); err != nil {
		return "", err
	}
	existing, err := s.store.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	if err := CheckDuplicate(existing, kind, rule, id); err != nil {
		return "", err
	}
	stored, err := EncodePayload(rule)
	if err != nil {
		return "", err
	}
	newID, err := s.store.Upsert(ctx, kind, scopes, priority, stored, id)
	if err != nil {
		return "", err
	}
	s.log.Infof("rule %s upserted: kind=%s priority=%d scope=%v", newID, kind, priority, scopes)
	action := "create"
	if id != "" {
		action = "edit"
	}
	s.publish(events.RuleChanged{RuleID: newID, Kind: kind.String(), Action: action, Scope: scopes})
	return newID, nil
}

// Delete removes a rule by id. Unknown ids report ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	rules, err := s.store.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	var (
		scopes []string
		kind   string
	)
	for _, r := range rules {
		if r.ID == id {
			scopes = r.Scope
			kind = r.Kind.String()
			break
		}
	}
	affected, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	s.log.Infof("rule %s deleted", id)
	s.publish(events.RuleChanged{RuleID: id, Kind: kind, Action: "delete", Scope: scopes})
	return affected, nil
}

// Refresh re-derives every stored status against today.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	return s.store.RefreshStatuses(ctx, s.now())
}

func (s *Service) publish(ev eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
