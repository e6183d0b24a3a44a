package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// lookBrowser is replaced in tests.
var lookBrowser = launcher.LookPath

// CheckBrowser reports the Chromium binary the browser capture backend will
// launch. An explicit binary must resolve; otherwise the launcher's own
// search order is used, and a miss is reported as optional because the
// launcher downloads a browser on first use.
func CheckBrowser(binary string) Status {
	result := Status{
		Name:        "Chromium",
		Description: "Used by the browser capture backend",
	}

	if explicit := strings.TrimSpace(binary); explicit != "" {
		result.Command = explicit
		resolved, err := exec.LookPath(explicit)
		if err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", explicit)
			return result
		}
		result.Path = resolved
		result.Available = true
		return result
	}

	result.Command = "chromium"
	result.Optional = true
	if found, ok := lookBrowser(); ok {
		result.Path = found
		result.Available = true
		return result
	}
	result.Detail = "no local browser found; one will be downloaded on first capture"
	return result
}
