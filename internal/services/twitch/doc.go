// Package twitch answers the poller's liveness question through the Helix
// streams endpoint: is this channel broadcasting, and which game is on screen.
//
// Failures are tagged with services markers. Network errors, throttling and
// 5xx responses are transient; rejected credentials are a configuration error.
// The poller treats every failure as "offline this cycle".
package twitch
