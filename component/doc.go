// Package component defines the lifecycle contract shared by the long-lived
// parts of the session runner and a Registry that starts them in order and
// stops them in reverse.
//
// # Interfaces
//
//   - Component: Start/Stop/Health lifecycle
//   - Describable: optional startup summary line
//
// Func adapts plain functions, for steps such as preloading a cache that
// have no type of their own.
package component
