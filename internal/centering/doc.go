// Package centering measures how well a trading card's printed frame sits
// inside its physical border.
//
// The analyzer converts a photograph to a luminance field no larger than the
// configured working size, then finds the outer card boundary with a
// gradient threshold-and-reduce pass over the whole frame. A second, more
// permissive pass inside a slightly shrunk outer box finds the inner printed
// frame. If that pass fails the inner box falls back to a fixed inset and the
// measurement is flagged inner_margin_derived.
//
// Margins, ratios and worst-axis percentages are recomputed from the two
// boxes on every call. Outer boxes that look like detection artifacts
// (full frame, too small, heavy perspective, clipped by the frame) still
// produce a measurement, marked invalid and tagged below_gem, so callers can
// show what was found. EvaluateQuality applies a separate structural gate
// on top of the detection confidence.
package centering
