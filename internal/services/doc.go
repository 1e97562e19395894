// Package services defines shared error utilities consumed across the
// transcoder wrapper.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures
//     (discovery, spawn, control, configuration) so callers can branch with
//     errors.Is instead of string matching.
//
// Use these helpers when wiring new surfaces so operational behaviour stays
// uniform across the CLI and the library.
package services
