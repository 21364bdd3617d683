// Package dashboard orchestrates refresh cycles: it owns the Slurm
// client and the three persistent caches, wires read-through path
// enrichment and write-through caching into each snapshot, and guards
// bulk array cancellations behind selector validation.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/pkg/arrayspec"
	"github.com/slurmdeck/slurmdeck/pkg/jobcache"
	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

// ErrConfirmationRequired is returned when a resolved cancellation
// batch exceeds the confirmation threshold and the caller has not yet
// confirmed.
var ErrConfirmationRequired = errors.New("large cancellation requires explicit confirmation")

// Caches bundles the three independently persisted stores.
type Caches struct {
	Paths   *jobcache.PathCache
	Scripts *jobcache.ScriptCache
	Pins    *jobcache.PinCache
}

// Manager is the explicitly constructed context object holding the
// client and caches, replacing what would otherwise be ambient global
// state. Construct once at startup, Close at teardown.
type Manager struct {
	client *slurm.Client
	caches Caches
	log    *zap.Logger

	// ConfirmThreshold overrides the resolved-task count above which
	// bulk cancellation needs confirmation. Zero uses the arrayspec
	// default.
	ConfirmThreshold int

	// HistorySince bounds the accounting-history query window.
	HistorySince time.Duration

	mu      sync.Mutex
	jobs    []slurm.JobRecord
	history []slurm.HistoryRecord
}

// New creates a manager. A nil logger disables logging.
func New(client *slurm.Client, caches Caches, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{client: client, caches: caches, log: log}
}

// Refresh fetches a fresh active-job snapshot and applies cache
// enrichment: read-through for jobs whose paths did not resolve,
// write-through for ones that did, archived-script and pin markers
// attached, and stale pins cleaned against the new snapshot.
//
// Each call builds a completely new record set and swaps it in under
// lock, so overlapping refreshes converge last-fetch-wins without
// interleaving partial writes into one record.
func (m *Manager) Refresh(ctx context.Context) ([]slurm.JobRecord, error) {
	refreshID := uuid.New().String()
	start := time.Now()

	jobs, err := m.client.FetchActive(ctx)
	if err != nil {
		return nil, err
	}

	activeIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		activeIDs = append(activeIDs, job.ID)

		if m.caches.Paths != nil {
			if pathsResolved(job) {
				m.caches.Paths.Set(job.ID, job.StdoutPath, job.StderrPath)
			} else if e, ok := m.caches.Paths.Get(job.ID); ok {
				job.StdoutPath = e.Stdout
				job.StderrPath = e.Stderr
			}
		}

		if m.caches.Scripts != nil {
			if path, ok := m.caches.Scripts.Cache(job.ID, job.Command); ok {
				job.ScriptPath = path
			}
		}

		if m.caches.Pins != nil {
			job.Pinned = m.caches.Pins.IsPinned(job.ID)
		}
	}

	if m.caches.Pins != nil {
		m.caches.Pins.CleanupStale(activeIDs)
	}

	m.mu.Lock()
	m.jobs = jobs
	m.mu.Unlock()

	m.log.Debug("refresh completed",
		zap.String("refresh_id", refreshID),
		zap.Int("jobs", len(jobs)),
		zap.Duration("duration", time.Since(start)))

	return snapshot(jobs), nil
}

// Jobs returns the last refreshed snapshot without re-fetching.
func (m *Manager) Jobs() []slurm.JobRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.jobs)
}

// RefreshHistory fetches terminal jobs from accounting history.
func (m *Manager) RefreshHistory(ctx context.Context) ([]slurm.HistoryRecord, error) {
	records, err := m.client.FetchHistory(ctx, m.HistorySince)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.history = records
	m.mu.Unlock()
	return snapshot(records), nil
}

// History returns the last fetched history snapshot.
func (m *Manager) History() []slurm.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.history)
}

// ResolveHistoryPaths fills in a history record's output paths on
// demand: from the path cache when possible, otherwise by fetching the
// job's detail blob and caching the result for next time.
func (m *Manager) ResolveHistoryPaths(ctx context.Context, rec *slurm.HistoryRecord) {
	if rec.StdoutPath != "" || rec.StderrPath != "" {
		return
	}

	if m.caches.Paths != nil {
		if e, ok := m.caches.Paths.Get(rec.ID); ok {
			rec.StdoutPath = e.Stdout
			rec.StderrPath = e.Stderr
			return
		}
	}

	stdout, stderr, ok := m.client.ResolvePaths(ctx, rec.ID, rec.Name, rec.Nodes)
	if !ok {
		return
	}
	rec.StdoutPath = stdout
	rec.StderrPath = stderr
	if m.caches.Paths != nil {
		m.caches.Paths.Set(rec.ID, stdout, stderr)
	}
}

// CancelPlan validates a selector against the array's declared bounds
// and returns the concrete identifier list to cancel, without issuing
// anything.
func (m *Manager) CancelPlan(ctx context.Context, baseID, selector string) (*arrayspec.Resolution, error) {
	sel, err := arrayspec.Parse(baseID, selector)
	if err != nil {
		return nil, err
	}
	if sel.Kind == arrayspec.EntireArray {
		return sel.Resolve(arrayspec.Bounds{}, m.ConfirmThreshold)
	}

	low, high, err := m.client.ArrayBounds(ctx, baseID)
	if err != nil {
		return nil, err
	}
	return sel.Resolve(arrayspec.Bounds{Low: low, High: high}, m.ConfirmThreshold)
}

// CancelArray resolves and executes a cancellation selector. When the
// resolved batch needs confirmation and confirmed is false, nothing is
// cancelled and ErrConfirmationRequired is returned alongside the plan
// so the caller can prompt.
func (m *Manager) CancelArray(ctx context.Context, baseID, selector string, confirmed bool) (*arrayspec.Resolution, []slurm.CancelResult, error) {
	plan, err := m.CancelPlan(ctx, baseID, selector)
	if err != nil {
		return nil, nil, err
	}
	if plan.NeedsConfirmation && !confirmed {
		return plan, nil, ErrConfirmationRequired
	}
	return plan, m.client.CancelTasks(ctx, plan.IDs), nil
}

// Submit submits a batch script and returns the new job id.
func (m *Manager) Submit(ctx context.Context, scriptPath string) (string, error) {
	return m.client.Submit(ctx, scriptPath)
}

// Pin marks a job as pinned.
func (m *Manager) Pin(id string) {
	if m.caches.Pins != nil {
		m.caches.Pins.Pin(id)
	}
}

// Unpin removes a job's pin.
func (m *Manager) Unpin(id string) {
	if m.caches.Pins != nil {
		m.caches.Pins.Unpin(id)
	}
}

// ArchiveScript archives a job's submission script immediately and
// returns the archive path.
func (m *Manager) ArchiveScript(id, scriptPath string) (string, bool) {
	if m.caches.Scripts == nil {
		return "", false
	}
	return m.caches.Scripts.Cache(id, scriptPath)
}

// Close flushes logging state. The caches persist synchronously on
// every mutation, so there is nothing further to write here.
func (m *Manager) Close() {
	_ = m.log.Sync()
}

func pathsResolved(job *slurm.JobRecord) bool {
	return isResolved(job.StdoutPath) || isResolved(job.StderrPath)
}

func isResolved(path string) bool {
	return path != "" && path != "N/A"
}

func snapshot[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
