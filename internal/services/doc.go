// Package services defines shared utilities consumed by the slideshow
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so the CLI can turn a
//     failure into a consistent hint (missing ffmpeg vs bad input vs bug).
//
// Use these helpers when wiring new pipeline stages so error handling and
// observability stay uniform.
package services
