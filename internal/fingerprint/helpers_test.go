package fingerprint_test

import (
	"context"
	"errors"

	"cardscan/internal/config"
)

func configMatching(same, different, pw, dw float64, shortlist int) config.Matching {
	return config.Matching{
		SameThreshold:      same,
		DifferentThreshold: different,
		PHashWeight:        pw,
		DHashWeight:        dw,
		ShortlistSize:      shortlist,
	}
}

type fakeBindings struct {
	items map[string]string
	err   error
	calls []string
}

func (f *fakeBindings) LookupBinding(_ context.Context, key string) (string, bool, error) {
	f.calls = append(f.calls, key)
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.items[key]
	return id, ok, nil
}

var errStoreDown = errors.New("store down")
