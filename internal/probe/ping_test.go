// internal/probe/ping_test.go
package probe

import (
	"strconv"
	"testing"
	"time"
)

func TestRTTRegex(t *testing.T) {
	cases := []struct {
		name   string
		output string
		wantMS float64
		ok     bool
	}{
		{"linux", "64 bytes from 8.8.8.8: icmp_seq=1 ttl=118 time=11.8 ms", 11.8, true},
		{"windows", "Reply from 8.8.8.8: bytes=32 time=9ms TTL=118", 9, true},
		{"windows sub-ms", "Reply from 192.168.1.1: bytes=32 time<1ms TTL=64", 1, true},
		{"no reply", "Request timed out.", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := rttRegex.FindStringSubmatch(tc.output)
			if tc.ok != (len(m) > 1) {
				t.Fatalf("match = %v, want %v", len(m) > 1, tc.ok)
			}
			if !tc.ok {
				return
			}
			got, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				t.Fatalf("parse %q: %v", m[1], err)
			}
			if got != tc.wantMS {
				t.Fatalf("rtt = %v, want %v", got, tc.wantMS)
			}
		})
	}
}

func TestReplyTokens(t *testing.T) {
	cases := []struct {
		output string
		want   bool
	}{
		{"64 bytes from 1.1.1.1: icmp_seq=1 ttl=60 time=4.2 ms", true},
		{"reply from 8.8.8.8: bytes=32 time=9ms ttl=118", true},
		{"request timed out.", false},
		{"destination host unreachable", false},
	}
	for _, tc := range cases {
		if got := hasToken(tc.output, replyTokens); got != tc.want {
			t.Fatalf("hasToken(%q) = %v, want %v", tc.output, got, tc.want)
		}
	}
}

func TestPingArgsTimeoutFloor(t *testing.T) {
	args := pingArgs("10.0.0.1", 200*time.Millisecond)
	// Sub-second timeouts must not produce "-W 0", which many ping
	// implementations treat as no timeout at all.
	for i, a := range args {
		if a == "-W" && args[i+1] == "0" {
			t.Fatal("timeout rounded down to 0 seconds")
		}
	}
}
