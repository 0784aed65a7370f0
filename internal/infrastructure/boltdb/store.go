// Package boltdb is a single-file link store for deployments without DynamoDB.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"github.com/sabflip/account-link/internal/domain"
)

var (
	bucketVerifications = []byte("pending_verifications")
	bucketAccounts      = []byte("linked_accounts")
)

// Store persists verifications and linked accounts keyed by internal user id.
// Each operation runs in one bolt transaction, so per-user writes are atomic.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path and ensures both buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketVerifications, bucketAccounts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) PutVerification(_ context.Context, v *domain.VerificationRequest) error {
	b, err := jsoniter.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVerifications).Put([]byte(v.UserID), b)
	})
}

func (s *Store) GetVerification(_ context.Context, userID string) (*domain.VerificationRequest, error) {
	var v domain.VerificationRequest
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketVerifications), userID, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) CompleteVerification(_ context.Context, v *domain.VerificationRequest, acct *domain.LinkedAccount) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		verifications := tx.Bucket(bucketVerifications)
		accounts := tx.Bucket(bucketAccounts)

		var cur domain.VerificationRequest
		if err := get(verifications, v.UserID, &cur); err != nil {
			return fmt.Errorf("verification superseded: %w", domain.ErrConflict)
		}
		if cur.RequestID != v.RequestID || cur.Consumed {
			return fmt.Errorf("verification superseded: %w", domain.ErrConflict)
		}
		if accounts.Get([]byte(acct.UserID)) != nil {
			return fmt.Errorf("account already linked: %w", domain.ErrConflict)
		}

		cur.Consumed = true
		vb, err := jsoniter.Marshal(&cur)
		if err != nil {
			return err
		}
		ab, err := jsoniter.Marshal(acct)
		if err != nil {
			return err
		}
		if err := verifications.Put([]byte(cur.UserID), vb); err != nil {
			return err
		}
		return accounts.Put([]byte(acct.UserID), ab)
	})
}

func (s *Store) GetLinkedAccount(_ context.Context, userID string) (*domain.LinkedAccount, error) {
	var a domain.LinkedAccount
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketAccounts), userID, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func get(bkt *bolt.Bucket, key string, out interface{}) error {
	val := bkt.Get([]byte(key))
	if val == nil {
		return fmt.Errorf("record %q not found: %w", key, domain.ErrNotFound)
	}
	return jsoniter.Unmarshal(val, out)
}
