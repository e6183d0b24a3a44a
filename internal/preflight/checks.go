package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mapwatch/internal/config"
	"mapwatch/internal/deps"
	"mapwatch/internal/services"
)

// CheckTwitch verifies the Helix credentials with a single request.
func CheckTwitch(ctx context.Context, checker CredentialChecker) Result {
	const name = "Twitch API"

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := checker.CheckCredentials(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeTwitchError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "credentials accepted"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies that the filesystem holding path has at least
// minFree bytes available to unprivileged users.
func CheckDiskSpace(name, path string, minFree uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", formatBytes(free), formatBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", formatBytes(free))}
}

// CheckEndpoint dials the host behind target, which may be a URL or a bare
// host:port, to confirm something is listening.
func CheckEndpoint(ctx context.Context, name, target string) Result {
	addr, err := dialAddress(target)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%v)", addr, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", addr)}
}

// CheckSystemDeps evaluates the external binaries needed by the configured
// capture backend and the OCR engine. Both the run and deps commands use
// this to avoid duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Tesseract",
			Command:     cfg.OCR.Binary,
			Description: "Required for objective text OCR",
		},
	}
	if cfg.Capture.Backend == config.CaptureBackendCLI {
		requirements = append(requirements,
			deps.Requirement{
				Name:        "Streamlink",
				Command:     cfg.Capture.StreamlinkBinary,
				Description: "Required to open the live stream",
			},
			deps.Requirement{
				Name:        "FFmpeg",
				Command:     cfg.Capture.FFmpegBinary,
				Description: "Required to extract a single frame",
			},
		)
	}
	statuses := deps.CheckBinaries(requirements)
	if cfg.Capture.Backend == config.CaptureBackendBrowser {
		statuses = append(statuses, deps.CheckBrowser(cfg.Capture.BrowserBinary))
	}
	return statuses
}

func dialAddress(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("address not configured")
	}
	if !strings.Contains(target, "://") {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return "", fmt.Errorf("invalid address %q: %v", target, err)
		}
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid url: %v", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url %q has no host", target)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	if port == "" {
		return "", fmt.Errorf("url %q has no port", target)
	}
	return net.JoinHostPort(host, port), nil
}

func defaultPort(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	case "nats":
		return "4222"
	case "redis":
		return "6379"
	case "postgres", "postgresql":
		return "5432"
	default:
		return ""
	}
}

// summarizeTwitchError produces a human-readable summary for credential check failures.
func summarizeTwitchError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return "credential check timed out (Helix API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "credential check timed out (Helix API unreachable)"
	}
	if errors.Is(err, services.ErrConfiguration) {
		return "credentials rejected: " + err.Error()
	}
	return err.Error()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
