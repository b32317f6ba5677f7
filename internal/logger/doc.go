// Package logger wraps zap for the command line tool:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and an atomic level that flags and settings can change.
//
// Code receives a context and logs through it, so names and fields attached by
// callers follow the call chain.
package logger
