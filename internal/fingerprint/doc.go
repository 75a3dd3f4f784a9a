// Package fingerprint decides whether a scanned card matches a card seen
// before.
//
// A Fingerprint is the front and back hash pairs of one scan. The Matcher
// shortlists prior candidates by the pHash distance of whichever face the
// current scan has, scores the shortlist by weighted hash similarity
// averaged over overlapping faces, and maps the best score onto same,
// different or uncertain. Key derives the versioned fingerprint key that
// embeds the hashes verbatim, and the Binder combines a decision with the
// identity binding store into one of six outcomes.
package fingerprint
