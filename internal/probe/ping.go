// internal/probe/ping.go
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	rttRegex = regexp.MustCompile(`(?i)time[=<]\s*([\d.]+)\s*ms`)

	// Tokens that indicate an ICMP echo reply regardless of locale quirks
	// in the ping binary's output.
	replyTokens = []string{"ttl=", "reply from", "bytes from"}

	permissionTokens = []string{"operation not permitted", "permission denied", "socket: permission"}
)

// SystemPinger shells out to the platform ping binary and parses its
// output. Raw sockets need elevated privileges on most systems, so the
// binary (which is usually setuid or has cap_net_raw) is the portable way
// to send an echo request.
type SystemPinger struct {
	lookupOnce sync.Once
	path       string
	lookupErr  error
}

func NewSystemPinger() *SystemPinger {
	return &SystemPinger{}
}

func (p *SystemPinger) Ping(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error) {
	p.lookupOnce.Do(func() {
		p.path, p.lookupErr = exec.LookPath("ping")
	})
	if p.lookupErr != nil {
		return 0, fmt.Errorf("%w: ping binary not found: %v", ErrMethodUnavailable, p.lookupErr)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cctx, p.path, pingArgs(addr, timeout)...)
	output, runErr := cmd.CombinedOutput()
	elapsed := time.Since(start)

	out := strings.ToLower(string(output))

	if hasToken(out, permissionTokens) {
		return 0, fmt.Errorf("%w: %s", ErrMethodUnavailable, firstLine(out))
	}

	if hasToken(out, replyTokens) {
		if m := rttRegex.FindStringSubmatch(string(output)); len(m) > 1 {
			if ms, err := strconv.ParseFloat(m[1], 64); err == nil {
				return time.Duration(ms * float64(time.Millisecond)), nil
			}
		}
		// Reply seen but no parseable rtt, fall back to wall time.
		return elapsed, nil
	}

	if cctx.Err() != nil {
		return 0, ErrTimeout
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			// Non-zero exit with no reply tokens is the normal "no
			// answer" case for every ping implementation.
			return 0, ErrUnreachable
		}
		return 0, fmt.Errorf("%w: %v", ErrMethodUnavailable, runErr)
	}

	return 0, ErrUnreachable
}

// pingArgs builds a single-echo IPv4 ping invocation for the current
// platform.
func pingArgs(addr string, timeout time.Duration) []string {
	if runtime.GOOS == "windows" {
		return []string{"-4", "-n", "1", "-w", strconv.Itoa(int(timeout.Milliseconds())), addr}
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return []string{"-4", "-c", "1", "-W", strconv.Itoa(secs), addr}
}

func hasToken(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
