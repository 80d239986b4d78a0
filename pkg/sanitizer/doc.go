// Package sanitizer normalizes holder-supplied strings before they are stored
// on a reservation. Holder data is opaque to the engine, so sanitizing is
// limited to whitespace collapsing and phone normalization; nothing here
// rejects input, that is the validator's job.
package sanitizer
