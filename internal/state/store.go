// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package state persists the cross-run state of the pipeline in an
// embedded BadgerDB: the seen-id registry, per-pair fence states, and
// the capped history logs.
//
// All mutations made during a run buffer in memory; Flush commits the
// whole run in a single transaction. A half-finished batch therefore
// never reaches durable storage - the run either completes and
// persists, or fails leaving prior state untouched.
package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/shiplog/shiplog/internal/geofence"
	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	seenKeyPrefix    = "seen:"
	fenceKeyPrefix   = "fence:"
	historyKeyPrefix = "history:"
)

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("state store is closed")

// Store is the durable run state. Safe for concurrent use; reads see
// buffered mutations from the current run before committed data.
type Store struct {
	db *badger.DB

	mu             sync.Mutex
	closed         bool
	pendingSeen    map[string]struct{}
	pendingFences  map[string]geofence.State
	pendingHistory map[string][]models.CanonicalEvent
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	return &Store{
		db:             db,
		pendingSeen:    make(map[string]struct{}),
		pendingFences:  make(map[string]geofence.State),
		pendingHistory: make(map[string][]models.CanonicalEvent),
	}, nil
}

// Close closes the underlying database. Buffered, unflushed mutations
// are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Has reports whether a canonical id was ever accepted, checking the
// current run's buffer before durable state. A read failure logs a
// warning and reports false; the merge-by-id history semantics keep a
// rare false negative from duplicating log entries.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	_, buffered := s.pendingSeen[id]
	s.mu.Unlock()
	if buffered {
		return true
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(seenKeyPrefix + id))
		return err
	})
	if err == nil {
		return true
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		logging.Warn().Err(err).Str("id", id).Msg("Seen-registry read failed")
	}
	return false
}

// Add buffers a canonical id as accepted. Durable after Flush.
func (s *Store) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSeen[id] = struct{}{}
}

// FenceStates loads every persisted fence state, keyed by
// geofence.StateKey.
func (s *Store) FenceStates() (map[string]geofence.State, error) {
	states := make(map[string]geofence.State)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fenceKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), fenceKeyPrefix)
			var st geofence.State
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &st)
			}); err != nil {
				return fmt.Errorf("decode fence state %q: %w", key, err)
			}
			states[key] = st
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load fence states: %w", err)
	}
	return states, nil
}

// SetFenceStates buffers the full fence-state map for persistence.
func (s *Store) SetFenceStates(states map[string]geofence.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, st := range states {
		s.pendingFences[key] = st
	}
}

// History loads the persisted log for a vessel slug (or
// models.GlobalFeedSlug). A missing log is an empty one.
func (s *Store) History(slug string) ([]models.CanonicalEvent, error) {
	s.mu.Lock()
	if buffered, ok := s.pendingHistory[slug]; ok {
		out := make([]models.CanonicalEvent, len(buffered))
		copy(out, buffered)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	var events []models.CanonicalEvent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKeyPrefix + slug))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &events)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load history %q: %w", slug, err)
	}
	return events, nil
}

// SetHistory buffers a merged log for persistence.
func (s *Store) SetHistory(slug string, events []models.CanonicalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingHistory[slug] = events
}

// Flush commits every buffered mutation in one transaction and clears
// the buffers. On error nothing is committed and the buffers are kept,
// so the caller may retry or abort the run.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for id := range s.pendingSeen {
			if err := txn.Set([]byte(seenKeyPrefix+id), []byte{1}); err != nil {
				return fmt.Errorf("set seen id: %w", err)
			}
		}
		for key, st := range s.pendingFences {
			data, err := json.Marshal(st)
			if err != nil {
				return fmt.Errorf("marshal fence state %q: %w", key, err)
			}
			if err := txn.Set([]byte(fenceKeyPrefix+key), data); err != nil {
				return fmt.Errorf("set fence state: %w", err)
			}
		}
		for slug, events := range s.pendingHistory {
			data, err := json.Marshal(events)
			if err != nil {
				return fmt.Errorf("marshal history %q: %w", slug, err)
			}
			if err := txn.Set([]byte(historyKeyPrefix+slug), data); err != nil {
				return fmt.Errorf("set history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush state: %w", err)
	}

	s.pendingSeen = make(map[string]struct{})
	s.pendingFences = make(map[string]geofence.State)
	s.pendingHistory = make(map[string][]models.CanonicalEvent)
	return nil
}
