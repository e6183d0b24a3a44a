package textutil

import (
	"strings"
	"time"
)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if strings.Trim(out, "_-") == "" {
		return "unknown"
	}
	return out
}

// FrameTimeLayout formats capture timestamps inside frame file names.
const FrameTimeLayout = "2006-01-02_15-04-05"

// FrameFileName returns "<streamer>_<YYYY-MM-DD_HH-MM-SS>.png" for a capture
// taken at ts. The streamer login is sanitized.
func FrameFileName(streamer string, ts time.Time) string {
	return SanitizeToken(streamer) + "_" + ts.UTC().Format(FrameTimeLayout) + ".png"
}
