package fingerprint

import (
	"fmt"
	"strings"

	"cardscan/internal/imagehash"
)

const keyVersion = "fpv1"

// Key derives the fingerprint key for fp. The key embeds the hashes verbatim
// so exact lookups and fuzzy matching can coexist. It reports false when fp
// carries no hashes.
func Key(fp Fingerprint) (string, bool) {
	switch {
	case fp.Front != nil && fp.Back != nil:
		return fmt.Sprintf("%s:fb:f=%s;b=%s", keyVersion, fp.Front, fp.Back), true
	case fp.Front != nil:
		return fmt.Sprintf("%s:f:%s", keyVersion, fp.Front), true
	case fp.Back != nil:
		return fmt.Sprintf("%s:b:%s", keyVersion, fp.Back), true
	default:
		return "", false
	}
}

// NormalizeKey lowercases and trims a key read from outside the process.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ParseKey recovers the fingerprint embedded in a key.
func ParseKey(key string) (Fingerprint, error) {
	key = NormalizeKey(key)
	rest, ok := strings.CutPrefix(key, keyVersion+":")
	if !ok {
		return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: unsupported version", key)
	}
	kind, body, ok := strings.Cut(rest, ":")
	if !ok {
		return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: missing face section", key)
	}

	var fp Fingerprint
	switch kind {
	case "f", "b":
		pair, err := imagehash.ParsePair(body)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: %w", key, err)
		}
		if kind == "f" {
			fp.Front = &pair
		} else {
			fp.Back = &pair
		}
	case "fb":
		frontPart, backPart, ok := strings.Cut(body, ";")
		front, okF := strings.CutPrefix(frontPart, "f=")
		back, okB := strings.CutPrefix(backPart, "b=")
		if !ok || !okF || !okB {
			return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: malformed front/back section", key)
		}
		fpair, err := imagehash.ParsePair(front)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: %w", key, err)
		}
		bpair, err := imagehash.ParsePair(back)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: %w", key, err)
		}
		fp.Front, fp.Back = &fpair, &bpair
	default:
		return Fingerprint{}, fmt.Errorf("parse fingerprint key %q: unknown face section %q", key, kind)
	}
	return fp, nil
}
