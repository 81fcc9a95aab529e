package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/rfxcom2mqtt/internal/config"
	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const (
	MEMORY_PATH           = ":memory:"
	DEFAULT_SAVE_INTERVAL = 60 * time.Second
	FLUSH_JOB_NAME        = "state-flush"
)

// StateStore keeps entity states in memory and persists the modified ones to
// SQLite periodically and on stop.
type StateStore struct {
	mu       sync.Mutex
	states   map[domain.StateKey]domain.EntityState
	reasons  map[domain.StateKey]string
	dirty    map[domain.StateKey]struct{}
	db       *sql.DB
	interval time.Duration
	sched    quartz.Scheduler
	logger   *zap.Logger
}

func NewStateStore(cfg config.StateConfig, logger *zap.Logger) (*StateStore, error) {
	path := cfg.Path
	if path == "" {
		path = MEMORY_PATH
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	// a single connection keeps in-memory databases alive between queries
	db.SetMaxOpenConns(1)

	s := &StateStore{
		states:   map[domain.StateKey]domain.EntityState{},
		reasons:  map[domain.StateKey]string{},
		dirty:    map[domain.StateKey]struct{}{},
		db:       db,
		interval: time.Duration(cfg.SaveIntervalSeconds) * time.Second,
		logger:   logger,
	}
	if s.interval <= 0 {
		s.interval = DEFAULT_SAVE_INTERVAL
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state database: %w", err)
	}
	return s, nil
}

func (s *StateStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS device_state (
		id         TEXT NOT NULL,
		type       TEXT NOT NULL,
		subtype    TEXT NOT NULL,
		state      TEXT NOT NULL,
		reason     TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (id, type, subtype)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Start loads the persisted states and schedules the periodic flush.
func (s *StateStore) Start(ctx context.Context) error {
	if err := s.load(); err != nil {
		return err
	}
	sched := quartz.NewStdScheduler()
	flushJob := job.NewFunctionJob(func(_ context.Context) (int, error) {
		n, err := s.Flush()
		if err != nil {
			s.logger.Error("store@flush could not save states", zap.Error(err))
		}
		return n, err
	})
	sched.Start(ctx)
	err := sched.ScheduleJob(quartz.NewJobDetail(flushJob, quartz.NewJobKey(FLUSH_JOB_NAME)), quartz.NewSimpleTrigger(s.interval))
	if err != nil {
		sched.Stop()
		return fmt.Errorf("could not schedule state flush: %w", err)
	}
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()
	s.logger.Debug("store@start states loaded", zap.Int("count", s.Len()), zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the periodic flush, saves pending states and closes the database.
func (s *StateStore) Stop(ctx context.Context) error {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()
	if sched != nil {
		sched.Stop()
		sched.Wait(ctx)
	}
	if _, err := s.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *StateStore) Get(key domain.StateKey) domain.EntityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[key]; ok {
		return st.Clone()
	}
	return domain.EntityState{}
}

func (s *StateStore) Set(key domain.StateKey, payload map[string]any, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = domain.EntityState(payload).Clone()
	s.reasons[key] = reason
	s.dirty[key] = struct{}{}
	s.logger.Debug("store@set state updated", zap.Stringer("key", key), zap.String("reason", reason))
}

func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

type pendingState struct {
	key    domain.StateKey
	state  []byte
	reason string
}

// Flush writes the states modified since the previous flush and returns how
// many were written.
func (s *StateStore) Flush() (int, error) {
	s.mu.Lock()
	pending := make([]pendingState, 0, len(s.dirty))
	for key := range s.dirty {
		encoded, err := json.Marshal(s.states[key])
		if err != nil {
			s.logger.Error("store@flush could not encode state", zap.Stringer("key", key), zap.Error(err))
			delete(s.dirty, key)
			continue
		}
		pending = append(pending, pendingState{key: key, state: encoded, reason: s.reasons[key]})
	}
	s.dirty = map[domain.StateKey]struct{}{}
	s.mu.Unlock()

	if len(pending) == 0 {
		return 0, nil
	}
	if err := s.write(pending); err != nil {
		// retried on the next flush
		s.mu.Lock()
		for _, p := range pending {
			s.dirty[p.key] = struct{}{}
		}
		s.mu.Unlock()
		return 0, err
	}
	return len(pending), nil
}

func (s *StateStore) write(pending []pendingState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin state flush: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range pending {
		_, err := tx.Exec(
			`INSERT INTO device_state (id, type, subtype, state, reason, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id, type, subtype) DO UPDATE
			 SET state = excluded.state, reason = excluded.reason, updated_at = excluded.updated_at`,
			p.key.Id, p.key.Type, p.key.Subtype, string(p.state), p.reason, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save state %s: %w", p.key, err)
		}
	}
	return tx.Commit()
}

func (s *StateStore) load() error {
	rows, err := s.db.Query(`SELECT id, type, subtype, state, reason FROM device_state`)
	if err != nil {
		return fmt.Errorf("load states: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var key domain.StateKey
		var encoded, reason string
		if err := rows.Scan(&key.Id, &key.Type, &key.Subtype, &encoded, &reason); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		var st domain.EntityState
		if err := json.Unmarshal([]byte(encoded), &st); err != nil {
			s.logger.Warn("store@load skipping unreadable state", zap.Stringer("key", key), zap.Error(err))
			continue
		}
		if _, modified := s.dirty[key]; modified {
			continue
		}
		s.states[key] = st
		s.reasons[key] = reason
	}
	return rows.Err()
}
