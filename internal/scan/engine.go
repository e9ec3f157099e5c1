package scan

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Engine accepts scan requests and answers progress queries. It owns the
// background fan-out but not the job registry, which is injected so the
// caller controls its lifecycle.
type Engine struct {
	store *Store
	opts  Options
	probe ProbeFunc
	log   zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	running chan struct{}
	wg      sync.WaitGroup
}

// NewEngine creates an engine backed by the given store. Zero fields in opts
// take their documented defaults.
func NewEngine(store *Store, opts Options, log zerolog.Logger) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = clamp(2*runtime.GOMAXPROCS(0), 8, 64)
	}
	if opts.MaxTargets <= 0 {
		opts.MaxTargets = DefaultMaxTargets
	}
	if opts.MaxRunning <= 0 {
		opts.MaxRunning = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:   store,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		running: make(chan struct{}, opts.MaxRunning),
	}
	e.probe = opts.Probe
	if e.probe == nil {
		e.probe = e.defaultProbe
	}
	return e
}

// Start expands the CIDR, registers a job and schedules the probe fan-out,
// returning the fresh job id without ever blocking on the scan itself.
// Malformed or oversized input yields a zero-target job that is already
// finished at 100% with no records; the id it returns is as real as any
// other and ages out of the store the same way.
func (e *Engine) Start(cidr string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var targets []string
	if n := targetCount(cidr); n > e.opts.MaxTargets {
		e.log.Warn().Str("cidr", cidr).Int("targets", n).Int("cap", e.opts.MaxTargets).
			Msg("refusing oversized range")
	} else {
		targets = expandCIDR(cidr)
	}

	job := e.store.Create(len(targets))
	if len(targets) == 0 {
		e.finishJob(job, time.Time{})
		return job.ID()
	}

	e.log.Info().Str("job_id", job.ID()).Str("cidr", cidr).
		Int("targets", len(targets)).Dur("timeout", timeout).Msg("scan started")

	e.wg.Add(1)
	go e.run(job, targets, timeout)
	return job.ID()
}

// Progress reports the current state of a job.
func (e *Engine) Progress(id string) (JobProgress, error) {
	job, err := e.store.Get(id)
	if err != nil {
		return JobProgress{}, err
	}
	return job.Progress(), nil
}

// Close interrupts in-flight probes and waits for their workers to unwind.
// Jobs keep the records they already collected; counters stay consistent.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

// run fans probes out over a bounded set of workers. The running semaphore
// keeps one oversized sweep from monopolising probe capacity that later jobs
// need; jobs past the limit wait their turn here, not in Start.
func (e *Engine) run(job *Job, targets []string, timeout time.Duration) {
	defer e.wg.Done()

	select {
	case e.running <- struct{}{}:
	case <-e.ctx.Done():
		e.finishJob(job, time.Time{})
		return
	}
	defer func() { <-e.running }()

	started := time.Now()
	sem := make(chan struct{}, clamp(e.opts.Concurrency, 1, len(targets)))
	var wg sync.WaitGroup

	for _, target := range targets {
		if e.ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			defer func() { <-sem }()
			job.record(e.probeTarget(addr, timeout))
		}(target)
	}

	wg.Wait()
	e.finishJob(job, started)
}

// probeTarget runs a single probe, converting a panic into an unreachable
// record so one bad unit neither takes down its siblings nor vanishes from
// the completed count.
func (e *Engine) probeTarget(addr string, timeout time.Duration) (record DeviceRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("addr", addr).Interface("panic", r).Msg("probe panicked")
			record = DeviceRecord{Address: addr, Hostname: UnknownHostname, LatencyMs: -1}
		}
	}()
	return e.probe(e.ctx, addr, timeout)
}

// finishJob flips the job to finished exactly once and schedules its
// eviction. Later calls are no-ops.
func (e *Engine) finishJob(job *Job, started time.Time) {
	if !job.finish() {
		return
	}
	e.store.scheduleEviction(job.ID())

	evt := e.log.Info().Str("job_id", job.ID()).Int("targets", job.Total()).
		Int("completed", job.Completed())
	if !started.IsZero() {
		evt = evt.Dur("elapsed", time.Since(started))
	}
	evt.Msg("scan finished")
}

func (e *Engine) defaultProbe(ctx context.Context, addr string, timeout time.Duration) DeviceRecord {
	record := probeAddress(ctx, addr, timeout)
	if record.Reachable && e.opts.LookupNames {
		enrichRecord(ctx, &record)
	}
	return record
}
