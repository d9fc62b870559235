package common

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Progress holds atomic counters for pipeline telemetry.
type Progress struct {
	RecordsParsed  uint64 // Atomic counter for parsed input records
	BytesRead      uint64 // Atomic counter for source bytes consumed
	SnapshotsBuilt uint64 // Atomic counter for computed FTRT snapshots

	// Internal state for reporter
	running  atomic.Bool
	stopCh   chan struct{}
	silent   atomic.Bool
	logger   *zap.SugaredLogger
	interval time.Duration

	// mu guards the rate baseline shared by the reporter and Reset.
	mu          sync.Mutex
	lastRecords uint64
	lastTime    time.Time
}

// NewProgress creates a new Progress instance reporting through logger.
func NewProgress(logger *zap.Logger) *Progress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Progress{
		stopCh:   make(chan struct{}),
		logger:   logger.Sugar(),
		interval: 500 * time.Millisecond,
	}
}

// AddRecords atomically increments the parsed records counter
func (p *Progress) AddRecords(count uint64) {
	atomic.AddUint64(&p.RecordsParsed, count)
}

// AddBytes atomically increments the bytes read counter
func (p *Progress) AddBytes(count uint64) {
	atomic.AddUint64(&p.BytesRead, count)
}

// AddSnapshots atomically increments the snapshot counter
func (p *Progress) AddSnapshots(count uint64) {
	atomic.AddUint64(&p.SnapshotsBuilt, count)
}

// Records atomically reads the parsed records counter
func (p *Progress) Records() uint64 {
	return atomic.LoadUint64(&p.RecordsParsed)
}

// Bytes atomically reads the bytes read counter
func (p *Progress) Bytes() uint64 {
	return atomic.LoadUint64(&p.BytesRead)
}

// Snapshots atomically reads the snapshot counter
func (p *Progress) Snapshots() uint64 {
	return atomic.LoadUint64(&p.SnapshotsBuilt)
}

// SetSilent enables or disables silent mode
func (p *Progress) SetSilent(silent bool) {
	p.silent.Store(silent)
}

// Start launches the background reporter. Calling Start twice is a no-op.
func (p *Progress) Start() {
	if p.running.Load() {
		return
	}

	p.running.Store(true)
	p.mu.Lock()
	p.lastTime = time.Now()
	p.lastRecords = 0
	p.mu.Unlock()

	go p.reporterLoop()
}

// Stop stops the background reporter goroutine
func (p *Progress) Stop() {
	if !p.running.Load() {
		return
	}

	p.running.Store(false)
	close(p.stopCh)
}

func (p *Progress) reporterLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.report()
		}
	}
}

func (p *Progress) report() {
	if p.silent.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(p.lastTime).Seconds()
	if elapsed < 0.001 {
		return
	}

	records := p.Records()
	rate := float64(records-p.lastRecords) / elapsed

	p.logger.Infof("[Progress] Records: %d (%.0f/s) | Read: %.2f MiB | Snapshots: %d",
		records,
		rate,
		float64(p.Bytes())/(1024*1024),
		p.Snapshots(),
	)

	p.lastRecords = records
	p.lastTime = now
}

// Reset resets all counters (useful for testing or restarting)
func (p *Progress) Reset() {
	atomic.StoreUint64(&p.RecordsParsed, 0)
	atomic.StoreUint64(&p.BytesRead, 0)
	atomic.StoreUint64(&p.SnapshotsBuilt, 0)
	p.mu.Lock()
	p.lastRecords = 0
	p.lastTime = time.Now()
	p.mu.Unlock()
}
