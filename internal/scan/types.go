package scan

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout bounds a single reachability probe. 300ms is plenty on
	// a LAN and keeps full /24 sweeps under a few seconds.
	DefaultTimeout = 300 * time.Millisecond
	// DefaultGrace is how long a finished job stays queryable before it is
	// evicted from the store.
	DefaultGrace = 30 * time.Second
	// DefaultMaxTargets caps how many addresses a single scan may expand to.
	DefaultMaxTargets = 65536
)

// UnknownHostname is reported when reverse resolution yields nothing usable.
const UnknownHostname = "unknown"

// DeviceRecord captures everything learned about a single address. It is
// immutable once produced; LatencyMs is -1 for hosts that did not answer.
type DeviceRecord struct {
	Address      string   `json:"address"`
	Hostname     string   `json:"hostname"`
	LatencyMs    int64    `json:"latencyMs"`
	Reachable    bool     `json:"reachable"`
	MacAddress   string   `json:"macAddress,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	OtherNames   []string `json:"otherNames,omitempty"`
}

// JobProgress is the caller-facing snapshot of a scan job. Records appear in
// completion order, which is unrelated to input order; sort by address if a
// stable display order is needed.
type JobProgress struct {
	Percent  int            `json:"percent"`
	Finished bool           `json:"finished"`
	Records  []DeviceRecord `json:"records"`
}

// Options tunes engine behaviour. The zero value selects defaults suitable
// for sweeping a home or office /24.
type Options struct {
	// Concurrency caps how many probes run in parallel per job. Zero means
	// clamp(2*GOMAXPROCS, 8, 64).
	Concurrency int
	// MaxTargets rejects CIDR expansions above this size. Zero means
	// DefaultMaxTargets.
	MaxTargets int
	// MaxRunning bounds how many jobs fan out at the same time; excess jobs
	// queue behind them. Zero means 4.
	MaxRunning int
	// LookupNames enables mDNS and NetBIOS name discovery plus MAC vendor
	// lookup for hosts that answered. Costs well over the probe timeout per
	// reachable host, so off by default.
	LookupNames bool
	// Probe overrides the network probe implementation.
	Probe ProbeFunc
}

// ErrJobNotFound indicates a job id that is unknown or already evicted.
// Callers poll stale ids routinely, so this is an expected outcome rather
// than an exceptional one.
var ErrJobNotFound = errors.New("job not found")
