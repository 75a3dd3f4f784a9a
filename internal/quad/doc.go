// Package quad validates four-point card boundaries.
//
// A quad arrives from the user, from an override, or from automatic detection,
// in either image-relative or pixel coordinates. Validate applies point-count,
// bounds, self-intersection, area, and aspect checks in that order and returns
// an Outcome carrying a specific rejection token. Thresholds are supplied by
// the call site through Options; the validator itself is a pure function.
//
// Quads built from a detector bounding box carry the bbox_seed provenance
// and pass the aspect check softly. ValidateRaw accepts caller input whose
// point count or shape may be wrong.
package quad
