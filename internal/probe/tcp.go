// internal/probe/tcp.go
package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"
)

// NetDialer is the production Dialer backed by net.Dialer.
type NetDialer struct{}

func (NetDialer) Dial(ctx context.Context, addr string, port int, timeout time.Duration) (time.Duration, error) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(dctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return 0, classifyDialError(err)
	}
	elapsed := time.Since(start)
	_ = conn.Close()
	return elapsed, nil
}

func classifyDialError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	return ErrUnreachable
}
