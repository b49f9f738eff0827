// Package storage provides persistent storage for datasets and
// training runs using BoltDB, with JSON-encoded records keyed by
// name and timestamp for efficient prefix scans.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	datasetsBucket = "datasets" // ingested dataset metadata
	runsBucket     = "runs"     // completed training runs
)

// DatasetRecord describes an ingested dataset.
type DatasetRecord struct {
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	Rows           int       `json:"rows"`
	FeatureColumns []string  `json:"feature_columns"`
	LabelColumn    string    `json:"label_column"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunRecord describes a completed training run and its outcome.
type RunRecord struct {
	Dataset   string        `json:"dataset"`
	Kernel    string        `json:"kernel"`
	Cost      float64       `json:"cost"`
	Gamma     float64       `json:"gamma"`
	Classes   []string      `json:"classes"`
	Accuracy  float64       `json:"accuracy"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store provides persistent storage backed by BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens the database under dataPath and creates the buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "ovrsvm-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(datasetsBucket)); err != nil {
			return fmt.Errorf("create datasets bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreDataset records metadata for an ingested dataset.
func (s *Store) StoreDataset(record DatasetRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(datasetsBucket))
		if b == nil {
			return fmt.Errorf("datasets bucket missing")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal dataset record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.Name, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// StoreRun records the outcome of a training run.
func (s *Store) StoreRun(record RunRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("runs bucket missing")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.Dataset, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetRuns returns all runs for the named dataset, oldest first.
func (s *Store) GetRuns(dataset string) ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(dataset + "_")

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var run RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}

// GetAllRuns returns every stored run across datasets.
func (s *Store) GetAllRuns() ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var run RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return nil
			}
			runs = append(runs, run)
			return nil
		})
	})

	return runs, err
}

// GetDatasets returns all stored dataset records.
func (s *Store) GetDatasets() ([]DatasetRecord, error) {
	var datasets []DatasetRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(datasetsBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var record DatasetRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil
			}
			datasets = append(datasets, record)
			return nil
		})
	})

	return datasets, err
}
