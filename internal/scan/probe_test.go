package scan

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPProbeOpenPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	latency, reachable := tcpProbe(context.Background(), "127.0.0.1", []int{port}, time.Second)
	if !reachable {
		t.Fatalf("expected open port %d to be reachable", port)
	}
	if latency < 0 {
		t.Fatalf("expected non-negative latency, got %v", latency)
	}
}

func TestTCPProbeRefusedPortCountsAsAlive(t *testing.T) {
	// Grab a port that is free and then closed again: dialing it gets an
	// active refusal from the stack, which proves the host is up.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	_, reachable := tcpProbe(context.Background(), "127.0.0.1", []int{port}, time.Second)
	if !reachable {
		t.Fatalf("expected refused port %d to count as alive", port)
	}
}

func TestTCPProbeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, reachable := tcpProbe(ctx, "127.0.0.1", []int{80}, time.Second); reachable {
		t.Fatalf("expected cancelled probe to report unreachable")
	}
}

func TestProbeAddressDegradesToUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record := probeAddress(ctx, "203.0.113.1", 10*time.Millisecond)
	if record.Address != "203.0.113.1" {
		t.Fatalf("unexpected address %q", record.Address)
	}
	if record.Reachable {
		t.Fatalf("expected unreachable record")
	}
	if record.LatencyMs != -1 {
		t.Fatalf("expected latency -1, got %d", record.LatencyMs)
	}
	if record.Hostname != UnknownHostname {
		t.Fatalf("expected hostname %q, got %q", UnknownHostname, record.Hostname)
	}
}

func TestResolveHostnameCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if name := resolveHostname(ctx, "203.0.113.1"); name != "" {
		t.Fatalf("expected empty name on cancelled context, got %q", name)
	}
}
