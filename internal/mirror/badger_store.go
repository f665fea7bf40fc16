package mirror

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	eventKeyPrefix = "event:"
	sequenceKey    = "seq:events"
)

// BadgerStore keeps mirrored events in BadgerDB under big-endian sequence
// keys so iteration returns them in append order
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadgerStore opens (or creates) a store in dir
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("get sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

func eventKey(n uint64) []byte {
	key := make([]byte, len(eventKeyPrefix)+8)
	copy(key, eventKeyPrefix)
	binary.BigEndian.PutUint64(key[len(eventKeyPrefix):], n)
	return key
}

func (s *BadgerStore) Append(ctx context.Context, events []json.RawMessage) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, event := range events {
		n, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		if err := wb.Set(eventKey(n), event); err != nil {
			return fmt.Errorf("set event: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	return nil
}

func (s *BadgerStore) Load(ctx context.Context) ([]json.RawMessage, error) {
	events := []json.RawMessage{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			events = append(events, json.RawMessage(val))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	return events, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}
