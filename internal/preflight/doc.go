// Package preflight provides readiness checks for the external binaries,
// services and filesystem paths that mapwatch depends on.
//
// These checks run in two contexts:
//   - "mapwatch run" calls RunAll before starting the watch loop and logs
//     every failure so a broken capture or OCR setup is visible up front.
//   - "mapwatch deps" prints CheckSystemDeps and RunAll as tables.
//
// Optional sinks are only checked when their config toggle is enabled.
package preflight
