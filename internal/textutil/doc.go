// Package textutil provides small text helpers shared by the capture and sink
// packages: filesystem and subject-safe tokens, and frame file naming.
package textutil
