// Package scan runs one card scan end to end.
//
// Service.Process takes the front and back photographs of a card (either may
// be missing), holds the per-scan lock so a scan is never analyzed twice at
// once, and then for each face:
//
//   - decodes the photograph
//   - measures centering, honouring a caller-supplied boundary quad
//   - warps the accepted boundary to the normalized face size
//   - computes the dHash/pHash pair
//
// Faces fail independently. The report's status is ok when every supplied
// face produced a valid measurement and hashes, partial when only some did,
// and failed when none did.
//
// The face hashes then form the fingerprint. An already-bound fingerprint
// key short-circuits to the bound item; otherwise the owner's prior scans
// are matched and the binder decides whether this is a card seen before.
// Bindings and the scan row are written to the store when one is configured.
package scan
