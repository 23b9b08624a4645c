// Package textutil provides text processing utilities for display labels,
// identifier sanitization, and byte-order-mark tolerant decoding.
//
// The primary use cases are:
//   - Deriving human-readable labels from machine job identifiers
//   - Sanitizing free-form identifiers into filesystem-safe tokens
//   - Decoding stored text that may carry a UTF-8 or UTF-16 BOM
package textutil
