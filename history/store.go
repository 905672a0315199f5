// Package history persists completed swaps to a local bolt database.
package history

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/swap"
)

// Store is a bolthold backed swap.Recorder
type Store struct {
	db *bolthold.Store
}

// Open open or create the history database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := bolthold.Open(dbPath, 0666, &bolthold.Options{
		Options: &bolt.Options{Timeout: 3 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("open history db '%v': %w", dbPath, err)
	}
	log.Info("open history db success", "path", dbPath)
	return &Store{db: db}, nil
}

// Close close the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// AddRecord implements swap.Recorder. Re-inserting the same payment
// id updates the stored record instead of failing.
func (s *Store) AddRecord(record *swap.Record) error {
	err := s.db.Upsert(record.PaymentID, record)
	if err != nil {
		return fmt.Errorf("store swap record '%v': %w", record.PaymentID, err)
	}
	return nil
}

// GetRecord get one record by payment id, nil if absent
func (s *Store) GetRecord(paymentID string) (*swap.Record, error) {
	var record swap.Record
	err := s.db.Get(paymentID, &record)
	if err != nil {
		if err == bolthold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListRecords list stored records, newest first, up to limit (0 for all)
func (s *Store) ListRecords(limit int) ([]*swap.Record, error) {
	var records []*swap.Record
	query := (&bolthold.Query{}).SortBy("CompletedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := s.db.Find(&records, query)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecordsByNetwork list stored records of one network, newest first
func (s *Store) ListRecordsByNetwork(networkKey string, limit int) ([]*swap.Record, error) {
	var records []*swap.Record
	query := bolthold.Where("NetworkKey").Eq(networkKey).SortBy("CompletedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := s.db.Find(&records, query)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecordsByAddress list stored records sent from or to the given
// address, newest first
func (s *Store) ListRecordsByAddress(address string, limit int) ([]*swap.Record, error) {
	var records []*swap.Record
	query := bolthold.Where("FromAddress").Eq(address).
		Or(bolthold.Where("ToAddress").Eq(address)).
		SortBy("CompletedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := s.db.Find(&records, query)
	if err != nil {
		return nil, err
	}
	return records, nil
}
