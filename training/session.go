package training

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	_ "modernc.org/sqlite"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/score"
)

// MetricsStore persists per-step training metrics to a SQLite database so
// a run can be inspected after the process exits.
type MetricsStore struct {
	db *sql.DB
}

// OpenMetricsStore opens (creating if needed) a SQLite-backed metrics
// store at path.
func OpenMetricsStore(path string) (*MetricsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("open metrics store %s: %w", path, err)}
	}
	const schema = `
CREATE TABLE IF NOT EXISTS training_steps (
	session_id   TEXT NOT NULL,
	epoch        INTEGER NOT NULL,
	step         INTEGER NOT NULL,
	loss         REAL NOT NULL,
	num_features INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("migrate metrics store %s: %w", path, err)}
	}
	return &MetricsStore{db: db}, nil
}

// Close releases the underlying database handle.
func (m *MetricsStore) Close() error { return m.db.Close() }

// Insert records one training step.
func (m *MetricsStore) Insert(sessionID uuid.UUID, epoch, step int, loss float32, numFeatures int) error {
	_, err := m.db.Exec(
		`INSERT INTO training_steps (session_id, epoch, step, loss, num_features) VALUES (?, ?, ?, ?, ?)`,
		sessionID.String(), epoch, step, float64(loss), numFeatures,
	)
	if err != nil {
		return &Error{Kind: InvalidInput, Err: fmt.Errorf("insert training step: %w", err)}
	}
	return nil
}

// StepRecord is one row read back from a metrics store.
type StepRecord struct {
	Epoch       int
	Step        int
	Loss        float64
	NumFeatures int
}

// RecentSteps returns the most recently inserted steps for a session, up
// to limit, newest first.
func (m *MetricsStore) RecentSteps(sessionID uuid.UUID, limit int) ([]StepRecord, error) {
	rows, err := m.db.Query(
		`SELECT epoch, step, loss, num_features FROM training_steps
		 WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`,
		sessionID.String(), limit,
	)
	if err != nil {
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("query training steps: %w", err)}
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var r StepRecord
		if err := rows.Scan(&r.Epoch, &r.Step, &r.Loss, &r.NumFeatures); err != nil {
			return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("scan training step: %w", err)}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Session identifies one training run and records its steps to a
// MetricsStore.
type Session struct {
	ID    uuid.UUID
	store *MetricsStore
}

// NewSession returns a fresh session backed by store. store may be nil,
// in which case RecordStep is a no-op; useful for tests and one-off
// inspection runs that don't need persisted metrics.
func NewSession(store *MetricsStore) *Session {
	return &Session{ID: uuid.New(), store: store}
}

// RecordStep records one training step against this session, if a store
// is attached.
func (s *Session) RecordStep(epoch, step int, loss float32, numFeatures int) error {
	if s.store == nil {
		return nil
	}
	return s.store.Insert(s.ID, epoch, step, loss, numFeatures)
}

// EpochSummary returns the mean and (sample, n-1) standard deviation of a
// slice of per-step losses, weighting every step equally.
func (s *Session) EpochSummary(losses []float64) (mean, stddev float64) {
	if len(losses) == 0 {
		return 0, 0
	}
	mean, stddev = stat.MeanStdDev(losses, nil)
	return mean, stddev
}

// ShardResult is one worker shard's finished trainer plus the examples it
// consumed, returned by RunWorkers.
type ShardResult struct {
	Trainer  *Trainer
	Examples []*PartialExample
}

// RunWorkers partitions examples into shards, running each shard's
// examples through its own Trainer/Analyzer pair concurrently. newAnalyzer
// must return an independent Analyzer per call since Analyzer state is
// not safe for concurrent use. It returns one ShardResult per shard,
// preserving shard order, or the first error encountered.
func RunWorkers(
	ctx context.Context,
	shardCount int,
	examples []*PartialExample,
	newAnalyzer func() analysis.Analyzer,
	calc *feature.Calculator,
	mask uint32,
	sdef *score.Def,
) ([]ShardResult, error) {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([][]*PartialExample, shardCount)
	for i, ex := range examples {
		s := i % shardCount
		shards[s] = append(shards[s], ex)
	}

	results := make([]ShardResult, shardCount)
	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			trainer := NewTrainer(newAnalyzer(), calc, mask)
			for _, ex := range shard {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				trainer.SetExample(ex)
				if err := trainer.Prepare(); err != nil {
					return err
				}
				if err := trainer.Compute(sdef); err != nil {
					return err
				}
			}
			results[i] = ShardResult{Trainer: trainer, Examples: shard}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
