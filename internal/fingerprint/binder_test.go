package fingerprint_test

import (
	"context"
	"errors"
	"testing"

	"cardscan/internal/fingerprint"
	"cardscan/internal/logging"
)

func TestBinderOutcomes(t *testing.T) {
	ctx := context.Background()
	const key = "fpv1:f:0f0f0f0f0f0f0f0f.00ff00ff00ff00ff"
	const candidateKey = "fpv1:f:0f0f0f0f0f0f0f0f.00ff00ff00ff00fe"
	best := &fingerprint.Candidate{ID: "scan-1", Key: candidateKey}

	tests := []struct {
		name     string
		key      string
		res      fingerprint.Result
		bindings map[string]string
		want     fingerprint.Outcome
		item     string
	}{
		{"no hashes", "", fingerprint.Result{Decision: fingerprint.DecisionUncertain, Reason: fingerprint.ReasonNoHashes}, nil, fingerprint.OutcomeNoHashes, ""},
		{"no candidates", key, fingerprint.Result{Decision: fingerprint.DecisionDifferent, Reason: fingerprint.ReasonNoCandidates}, nil, fingerprint.OutcomeNoCandidates, ""},
		{"different", key, fingerprint.Result{Decision: fingerprint.DecisionDifferent, BestCandidate: best}, nil, fingerprint.OutcomeDifferent, ""},
		{"uncertain", key, fingerprint.Result{Decision: fingerprint.DecisionUncertain, BestCandidate: best}, nil, fingerprint.OutcomeUncertain, ""},
		{"same unbound", key, fingerprint.Result{Decision: fingerprint.DecisionSame, BestCandidate: best}, nil, fingerprint.OutcomeSameMatchUnbound, ""},
		{"same bound by current key", key, fingerprint.Result{Decision: fingerprint.DecisionSame, BestCandidate: best}, map[string]string{key: "item-1"}, fingerprint.OutcomeSameMatchBound, "item-1"},
		{"same bound by candidate key", key, fingerprint.Result{Decision: fingerprint.DecisionSame, BestCandidate: best}, map[string]string{candidateKey: "item-2"}, fingerprint.OutcomeSameMatchBound, "item-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binder := fingerprint.NewBinder(&fakeBindings{items: tt.bindings}, logging.NewNop())
			got, err := binder.Resolve(ctx, tt.key, tt.res)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Outcome != tt.want || got.ItemID != tt.item {
				t.Fatalf("got %s/%q, want %s/%q", got.Outcome, got.ItemID, tt.want, tt.item)
			}
			if got.SeenBefore != (tt.want == fingerprint.OutcomeSameMatchBound) {
				t.Fatalf("seen before = %v for %s", got.SeenBefore, got.Outcome)
			}
		})
	}
}

func TestBinderLookupFastPath(t *testing.T) {
	store := &fakeBindings{items: map[string]string{"fpv1:b:k": "item-9"}}
	binder := fingerprint.NewBinder(store, nil)

	got, ok, err := binder.Lookup(context.Background(), "fpv1:b:k")
	if err != nil || !ok {
		t.Fatalf("Lookup ok=%v err=%v", ok, err)
	}
	if got.Outcome != fingerprint.OutcomeSameMatchBound || got.ItemID != "item-9" || !got.SeenBefore {
		t.Fatalf("unexpected binding %+v", got)
	}

	if _, ok, _ := binder.Lookup(context.Background(), "fpv1:b:other"); ok {
		t.Fatal("unbound key should miss")
	}
}

func TestBinderPropagatesStoreErrors(t *testing.T) {
	binder := fingerprint.NewBinder(&fakeBindings{err: errStoreDown}, nil)
	_, err := binder.Resolve(context.Background(), "k", fingerprint.Result{Decision: fingerprint.DecisionSame})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
