// Package poller runs the watch loop: every cycle it asks the liveness oracle
// about each roster entry in declaration order, captures a frame from the
// ones playing the target game, analyzes it and persists the detection.
//
// Failures are isolated per streamer. An oracle error counts as offline, a
// failed capture skips the streamer, an unreadable frame is still recorded
// as an Unknown Map detection, and a persist failure is logged. None of them
// stop the loop. Cancelling the context stops new work from being scheduled;
// a capture already in flight finishes under its own timeouts.
package poller
