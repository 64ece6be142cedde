// Package kdbxtypes defines the shared, dependency-light types used across
// the kdbx module: identifiers (UUID), timestamps, the typed error
// taxonomy, the non-fatal warning channel, and the option structs that
// configure loading and saving.
//
// This package has no dependency on any other kdbx package, so every other
// package can depend on it without import cycles.
//
// Design goals:
//   - Typed errors with stable categories callers can branch on via
//     errors.Is/errors.As instead of string matching.
//   - A separate, non-fatal warning channel for conditions such as an
//     implicit version upgrade or a preserved-but-unknown header field.
//   - Small, copyable value types (UUID, Timestamp) rather than large
//     object graphs.
package kdbxtypes
