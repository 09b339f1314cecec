// Package timeline assembles the dubbed soundtrack.
//
// The Compositor lays synthesized clips onto a silent vocal track at their
// script offsets, fitting each clip to its slot with a time stretch when the
// length differs noticeably, and mixes the result over the separated
// background. All mixing is additive with int16 saturation.
package timeline
