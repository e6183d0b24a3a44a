// Package main hosts the mapwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the watch daemon, analyzes individual
// frames, scores ad-hoc text against the objective catalog, queries the
// detection store, checks external dependencies, and scaffolds
// configuration. It centralizes configuration resolution and logger setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: new behavior belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
