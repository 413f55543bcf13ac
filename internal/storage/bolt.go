// Package storage persists dynamically registered clients so they survive
// restarts. Statically configured clients live in the config file and are not
// written here.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"oauthbff-go/internal/config"
)

// Bucket names for the bbolt database
const (
	ClientsBucket = "clients"
	MetaBucket    = "meta"
)

// Meta keys
const SchemaVersionKey = "schema"

// Current schema version
const CurrentSchemaVersion = 1

const dbFileName = "clients.db"

// BoltDB wraps bolt database operations for client records
type BoltDB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger
}

// NewBoltDB opens (or creates) the client database under dataDir.
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	dbPath := filepath.Join(dataDir, dbFileName)

	db, err := bbolt.Open(dbPath, 0o644, &bbolt.Options{
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", dbPath, err)
	}

	boltDB := &BoltDB{
		db:     db,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// initBuckets creates required buckets and sets up schema
func (b *BoltDB) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{ClientsBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		metaBucket := tx.Bucket([]byte(MetaBucket))
		versionBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(versionBytes, CurrentSchemaVersion)
		return metaBucket.Put([]byte(SchemaVersionKey), versionBytes)
	})
}

// SaveClient inserts or replaces a client record keyed by name.
func (b *BoltDB) SaveClient(client *config.ClientConfig) error {
	record := client.Clone()
	now := time.Now().UTC()
	if record.Created.IsZero() {
		record.Created = now
	}
	record.Updated = now

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ClientsBucket))
		if bucket == nil {
			return fmt.Errorf("clients bucket not found")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal client %s: %w", record.Name, err)
		}

		return bucket.Put([]byte(record.Name), data)
	})
}

// DeleteClient removes a client record, reporting whether one existed.
func (b *BoltDB) DeleteClient(name string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ClientsBucket))
		if bucket == nil {
			return fmt.Errorf("clients bucket not found")
		}

		if bucket.Get([]byte(name)) == nil {
			return nil
		}
		existed = true
		return bucket.Delete([]byte(name))
	})
	return existed, err
}

// GetClient loads a single client record by name.
func (b *BoltDB) GetClient(name string) (*config.ClientConfig, error) {
	var client *config.ClientConfig
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ClientsBucket))
		if bucket == nil {
			return fmt.Errorf("clients bucket not found")
		}

		data := bucket.Get([]byte(name))
		if data == nil {
			return nil
		}

		client = &config.ClientConfig{}
		if err := json.Unmarshal(data, client); err != nil {
			return fmt.Errorf("failed to unmarshal client %s: %w", name, err)
		}
		return nil
	})
	return client, err
}

// ListClients returns all persisted client records.
func (b *BoltDB) ListClients() ([]*config.ClientConfig, error) {
	var clients []*config.ClientConfig
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ClientsBucket))
		if bucket == nil {
			return fmt.Errorf("clients bucket not found")
		}

		return bucket.ForEach(func(key, data []byte) error {
			client := &config.ClientConfig{}
			if err := json.Unmarshal(data, client); err != nil {
				// A corrupt record should not take down startup; skip it.
				b.logger.Warnw("Skipping unreadable client record",
					"name", string(key),
					"error", err)
				return nil
			}
			clients = append(clients, client)
			return nil
		})
	})
	return clients, err
}
