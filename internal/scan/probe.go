package scan

import (
	"context"
	"errors"
	"net"
	"runtime"
	"strconv"
	"syscall"
	"time"

	ping "github.com/go-ping/ping"
)

// ProbeFunc checks a single address within the timeout and produces its
// device record. Implementations must not fail; degraded outcomes are encoded
// in the record itself.
type ProbeFunc func(ctx context.Context, addr string, timeout time.Duration) DeviceRecord

// fallbackPorts are tried with plain TCP connects when ICMP sockets are not
// available to the process. A completed handshake or an active refusal both
// prove a live stack at the address.
var fallbackPorts = []int{80, 443, 22, 445, 139, 135, 8080}

// probeAddress checks one address for reachability and resolves its hostname.
// The two run independently: an unreachable host may still have a PTR record,
// and a resolution failure never costs us a reachability result.
func probeAddress(ctx context.Context, addr string, timeout time.Duration) DeviceRecord {
	record := DeviceRecord{Address: addr, Hostname: UnknownHostname, LatencyMs: -1}

	if latency, reachable := pingAddress(ctx, addr, timeout); reachable {
		record.Reachable = true
		record.LatencyMs = latency.Milliseconds()
	}

	if name := resolveHostname(ctx, addr); name != "" {
		record.Hostname = name
	}

	return record
}

// pingAddress sends a single ICMP echo and reports the round-trip time.
// Socket-level failures (missing raw or dgram privilege, unsupported proto)
// fall back to TCP connect probing within the same timeout; a host that
// simply does not answer the echo is reported unreachable.
func pingAddress(ctx context.Context, addr string, timeout time.Duration) (time.Duration, bool) {
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return tcpProbe(ctx, addr, fallbackPorts, timeout)
	}

	// Unprivileged UDP mode works for regular users on Linux and macOS;
	// Windows only supports the privileged path.
	pinger.SetPrivileged(runtime.GOOS == "windows")
	pinger.Count = 1
	pinger.Timeout = timeout

	errCh := make(chan error, 1)
	go func() {
		errCh <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return 0, false
	case err := <-errCh:
		if err != nil {
			return tcpProbe(ctx, addr, fallbackPorts, timeout)
		}
	}

	stats := pinger.Statistics()
	if stats == nil || stats.PacketsRecv == 0 {
		return 0, false
	}
	return stats.AvgRtt, true
}

// tcpProbe dials the given ports in turn until the timeout budget runs out.
// Latency is the wall-clock time of the answering dial.
func tcpProbe(ctx context.Context, addr string, ports []int, timeout time.Duration) (time.Duration, bool) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: timeout}
	for _, port := range ports {
		started := time.Now()
		conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
		if err == nil {
			_ = conn.Close()
			return time.Since(started), true
		}
		// A refusal still proves something answered at the address.
		if errors.Is(err, syscall.ECONNREFUSED) {
			return time.Since(started), true
		}
		if dialCtx.Err() != nil {
			return 0, false
		}
	}
	return 0, false
}
