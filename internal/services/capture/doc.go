// Package capture turns a live channel into one still frame on disk.
//
// Two backends exist. The CLI backend pipes streamlink into ffmpeg and keeps
// the first decoded video frame; it is what production runs. The browser
// backend loads the channel page in headless Chromium (go-rod with stealth
// evasions) and screenshots the player element, which helps when streamlink
// is blocked or unavailable.
//
// Both write to a temporary sibling file and rename it into place, so a frame
// path handed to the analyzer is either complete or absent.
package capture
