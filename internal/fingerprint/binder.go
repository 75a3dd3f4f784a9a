package fingerprint

import (
	"context"
	"fmt"
	"log/slog"

	"cardscan/internal/logging"
)

// Outcome is the binder's answer to "has this physical card been seen
// before". The six states are distinct on purpose; callers must not collapse
// them to a boolean.
type Outcome string

const (
	OutcomeNoHashes         Outcome = "no_hashes"
	OutcomeNoCandidates     Outcome = "no_candidates"
	OutcomeSameMatchUnbound Outcome = "same_match_unbound"
	OutcomeSameMatchBound   Outcome = "same_match_bound"
	OutcomeDifferent        Outcome = "different"
	OutcomeUncertain        Outcome = "uncertain"
)

// BindingStore resolves fingerprint keys to physical item ids.
type BindingStore interface {
	LookupBinding(ctx context.Context, key string) (itemID string, found bool, err error)
}

// Binding is the binder's resolution for one scan.
type Binding struct {
	Outcome Outcome `json:"outcome"`
	Key     string  `json:"key,omitempty"`
	// ItemID is set when an existing binding was found.
	ItemID string `json:"item_id,omitempty"`
	// MatchedKey is the candidate key the decision was made against.
	MatchedKey string `json:"matched_key,omitempty"`
	SeenBefore bool   `json:"is_seen_before"`
}

// Binder combines a match decision with the identity binding store.
type Binder struct {
	store  BindingStore
	logger *slog.Logger
}

// NewBinder constructs a binder over store.
func NewBinder(store BindingStore, logger *slog.Logger) *Binder {
	return &Binder{
		store:  store,
		logger: logging.NewComponentLogger(logger, "binder"),
	}
}

// Lookup is the exact-key fast path: a key that is already bound is the same
// card without running the matcher.
func (b *Binder) Lookup(ctx context.Context, key string) (Binding, bool, error) {
	if key == "" || b.store == nil {
		return Binding{}, false, nil
	}
	itemID, found, err := b.store.LookupBinding(ctx, key)
	if err != nil {
		return Binding{}, false, fmt.Errorf("lookup binding: %w", err)
	}
	if !found {
		return Binding{}, false, nil
	}
	return Binding{
		Outcome:    OutcomeSameMatchBound,
		Key:        key,
		ItemID:     itemID,
		MatchedKey: key,
		SeenBefore: true,
	}, true, nil
}

// Resolve maps a match result for key onto one of the six outcomes. For a
// same decision the current key is consulted first, then the best
// candidate's key.
func (b *Binder) Resolve(ctx context.Context, key string, res Result) (Binding, error) {
	binding, err := b.resolve(ctx, key, res)
	if err != nil {
		return Binding{}, err
	}
	attrs := logging.DecisionAttrs("identity_binding", string(binding.Outcome), string(res.Reason))
	attrs = append(attrs, logging.String(logging.FieldItemID, binding.ItemID))
	b.logger.Debug("identity resolved", logging.Args(attrs...)...)
	return binding, nil
}

func (b *Binder) resolve(ctx context.Context, key string, res Result) (Binding, error) {
	binding := Binding{Key: key}
	if key == "" || res.Reason == ReasonNoHashes {
		binding.Outcome = OutcomeNoHashes
		return binding, nil
	}
	if res.Reason == ReasonNoCandidates {
		binding.Outcome = OutcomeNoCandidates
		return binding, nil
	}

	switch res.Decision {
	case DecisionDifferent:
		binding.Outcome = OutcomeDifferent
		return binding, nil
	case DecisionUncertain:
		binding.Outcome = OutcomeUncertain
		return binding, nil
	case DecisionSame:
	default:
		return Binding{}, fmt.Errorf("resolve binding: unknown decision %q", res.Decision)
	}

	if res.BestCandidate != nil {
		binding.MatchedKey = res.BestCandidate.Key
	}
	keys := []string{key}
	if binding.MatchedKey != "" && binding.MatchedKey != key {
		keys = append(keys, binding.MatchedKey)
	}
	for _, k := range keys {
		if b.store == nil {
			break
		}
		itemID, found, err := b.store.LookupBinding(ctx, k)
		if err != nil {
			return Binding{}, fmt.Errorf("lookup binding: %w", err)
		}
		if found {
			binding.Outcome = OutcomeSameMatchBound
			binding.ItemID = itemID
			binding.SeenBefore = true
			return binding, nil
		}
	}
	binding.Outcome = OutcomeSameMatchUnbound
	return binding, nil
}
