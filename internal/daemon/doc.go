// Package daemon owns the lifecycle of the long-running watcher.
//
// It takes a flock-based lock so only one instance polls a roster at a time,
// runs the watch loop in the background, prunes old logs and frames on a
// schedule, and emits start and stop notifications. Individual pipeline steps
// live in their own packages; the daemon only coordinates startup and shutdown.
package daemon
