// Package store persists named secrets in a bbolt database. Values pass
// through a keeper.Keeper and are stored with the cipher marker prefix, so a
// database dump shows only marked ciphertext.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/keyfort/keyfort/envelope"
	"github.com/keyfort/keyfort/keeper"
)

var secretsBucket = []byte("secrets")

// ErrNotFound is returned when no secret exists under the requested name.
var ErrNotFound = errors.New("secret not found")

type record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Value     string    `json:"value"` // cipher-marker prefix + base64 ciphertext
	CreatedAt time.Time `json:"created_at"`
}

// Store is a bbolt-backed secret store encrypting through a Keeper.
type Store struct {
	db *bbolt.DB
	k  *keeper.Keeper
}

// Open opens the bbolt database at path, creating it if necessary.
func Open(path string, k *keeper.Keeper) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(secretsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating secrets bucket: %w", err)
	}
	return &Store{db: db, k: k}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put encrypts value and stores it under name, replacing any existing entry.
func (s *Store) Put(name, value string) error {
	cipherText, err := s.k.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting secret: %w", err)
	}

	rec := record{
		ID:        uuid.NewString(),
		Name:      name,
		Value:     envelope.CipherMarker + cipherText,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(secretsBucket).Put([]byte(name), data)
	})
}

// Get returns the decrypted value stored under name.
func (s *Store) Get(name string) (string, error) {
	var rec record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(secretsBucket).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return "", err
	}
	return s.k.DecryptMarked(rec.Value)
}

// List returns the names of all stored secrets.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(secretsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Delete removes the secret stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(secretsBucket)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return b.Delete([]byte(name))
	})
}
