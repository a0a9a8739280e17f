package store

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/arcade/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSaved     = []byte("saved")
	bucketSettings  = []byte("settings")
	bucketReference = []byte("reference")
)

var allBuckets = [][]byte{bucketSaved, bucketSettings, bucketReference}

const dbFile = "arcade.db"

// Store implements domain.SavedStore, domain.SettingsStore and
// domain.ReferenceCache on BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access). In
	// memory-only mode it is the only copy.
	cache map[string][]byte

	subMu   sync.Mutex
	subs    map[int]chan []domain.SavedItem
	nextSub int
	closed  bool
}

// New opens (or creates) the database under dir. An empty dir gives a
// memory-only store.
func New(dir string) (*Store, error) {
	s := &Store{
		cache: make(map[string][]byte),
		subs:  make(map[int]chan []domain.SavedItem),
	}
	if dir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, dbFile), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close closes every observer and the database.
func (s *Store) Close() error {
	s.subMu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	}
	s.subMu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func cacheKey(bucket []byte, key []byte) string {
	return string(bucket) + ":" + string(key)
}

func (s *Store) getRaw(bucket, key []byte) ([]byte, bool, error) {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return data, true, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return data, true, nil
}

func (s *Store) get(bucket, key []byte, dest any) (bool, error) {
	data, ok, err := s.getRaw(bucket, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) putRaw(bucket, key, data []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put(key, data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) set(bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.putRaw(bucket, key, data)
}

func (s *Store) delete(bucket, key []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Delete(key)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()
	return nil
}

func (s *Store) deleteBucket(bucket []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			_, err := tx.CreateBucket(bucket)
			return err
		})
		if err != nil {
			return err
		}
	}

	prefix := string(bucket) + ":"
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()
	return nil
}

// === Saved items (key: big-endian id) ===

func idKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// Upsert inserts or replaces the saved item with the same id.
func (s *Store) Upsert(item domain.SavedItem) error {
	if err := s.set(bucketSaved, idKey(item.ID), item); err != nil {
		return &domain.StoreError{Op: "upsert", Err: err}
	}
	s.notify()
	return nil
}

// DeleteByID removes a saved item. Removing a missing id is not an error.
func (s *Store) DeleteByID(id int) error {
	if err := s.delete(bucketSaved, idKey(id)); err != nil {
		return &domain.StoreError{Op: "delete", Err: err}
	}
	s.notify()
	return nil
}

func (s *Store) Exists(id int) (bool, error) {
	_, ok, err := s.getRaw(bucketSaved, idKey(id))
	if err != nil {
		return false, &domain.StoreError{Op: "exists", Err: err}
	}
	return ok, nil
}

func (s *Store) GetByID(id int) (domain.SavedItem, bool, error) {
	var item domain.SavedItem
	ok, err := s.get(bucketSaved, idKey(id), &item)
	if err != nil {
		return domain.SavedItem{}, false, &domain.StoreError{Op: "get", Err: err}
	}
	return item, ok, nil
}

// DeleteAll removes every saved item.
func (s *Store) DeleteAll() error {
	if err := s.deleteBucket(bucketSaved); err != nil {
		return &domain.StoreError{Op: "delete all", Err: err}
	}
	s.notify()
	return nil
}

// ListSaved returns all saved items ordered by name, then id.
func (s *Store) ListSaved() ([]domain.SavedItem, error) {
	var raw [][]byte

	if s.db == nil {
		prefix := string(bucketSaved) + ":"
		s.mu.RLock()
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				raw = append(raw, v)
			}
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketSaved).ForEach(func(_, v []byte) error {
				raw = append(raw, slices.Clone(v))
				return nil
			})
		})
		if err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
	}

	items := make([]domain.SavedItem, 0, len(raw))
	for _, data := range raw {
		var item domain.SavedItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.SavedItem) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return items, nil
}

// ObserveAll streams the ordered saved list, starting with the current one
// and re-emitting after every mutation. Slow readers only see the latest list.
func (s *Store) ObserveAll(ctx context.Context) <-chan []domain.SavedItem {
	ch := make(chan []domain.SavedItem, 1)

	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		close(ch)
		return ch
	}
	items, err := s.ListSaved()
	if err != nil {
		items = nil
	}
	ch <- items
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}()
	return ch
}

// notify publishes the current list to every observer.
func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if len(s.subs) == 0 {
		return
	}
	// Listing under subMu keeps publishes in mutation order.
	items, err := s.ListSaved()
	if err != nil {
		return
	}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- items
	}
}

// === Settings ===

func (s *Store) GetSetting(key string) ([]byte, bool, error) {
	data, ok, err := s.getRaw(bucketSettings, []byte(key))
	if err != nil {
		return nil, false, &domain.StoreError{Op: "get setting", Err: err}
	}
	return data, ok, nil
}

func (s *Store) PutSetting(key string, value []byte) error {
	if err := s.putRaw(bucketSettings, []byte(key), slices.Clone(value)); err != nil {
		return &domain.StoreError{Op: "put setting", Err: err}
	}
	return nil
}

func (s *Store) DeleteSetting(key string) error {
	if err := s.delete(bucketSettings, []byte(key)); err != nil {
		return &domain.StoreError{Op: "delete setting", Err: err}
	}
	return nil
}

// === Reference lists ===

var (
	keyPlatforms = []byte("platforms")
	keyGenres    = []byte("genres")
)

func (s *Store) GetPlatforms() ([]domain.Platform, bool) {
	var platforms []domain.Platform
	ok, err := s.get(bucketReference, keyPlatforms, &platforms)
	return platforms, ok && err == nil
}

func (s *Store) SavePlatforms(platforms []domain.Platform) error {
	return s.set(bucketReference, keyPlatforms, platforms)
}

func (s *Store) GetGenres() ([]domain.Genre, bool) {
	var genres []domain.Genre
	ok, err := s.get(bucketReference, keyGenres, &genres)
	return genres, ok && err == nil
}

func (s *Store) SaveGenres(genres []domain.Genre) error {
	return s.set(bucketReference, keyGenres, genres)
}

// InvalidateReference drops cached platform and genre lists.
func (s *Store) InvalidateReference() error {
	return s.deleteBucket(bucketReference)
}
