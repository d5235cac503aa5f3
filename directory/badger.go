package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"project-relay/domain"
	"project-relay/errors"
)

const (
	projectPrefix = "project:"
	namePrefix    = "project-name:"
)

// BadgerStore persists project records in BadgerDB.
// It implements contract.IDirectory for the relay's admission path and adds
// the provisioning operations the binary needs to seed rooms.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// record is the stored representation of a project.
// Equivalent to the on-disk message shape in the chat repositories.
type record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProject persists a new project under a freshly generated canonical id.
// The name is unique; creating an existing name fails with ErrProjectExists.
func (s *BadgerStore) CreateProject(name string) (domain.Project, error) {
	rec := record{
		ID:        NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(namePrefix + name)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrProjectExists
		}
		if err := txn.Set([]byte(projectPrefix+rec.ID), data); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(rec.ID))
	})
	if err != nil {
		return domain.Project{}, err
	}

	return toProject(rec), nil
}

// FindProject resolves a project id to its record.
func (s *BadgerStore) FindProject(_ context.Context, id string) (domain.Project, error) {
	var rec record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(projectPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Project{}, errors.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}

	return toProject(rec), nil
}

// FindProjectByName resolves a project by its unique name.
// Used by seeding and provisioning, never by the admission path.
func (s *BadgerStore) FindProjectByName(ctx context.Context, name string) (domain.Project, error) {
	var id string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(namePrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Project{}, errors.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}

	return s.FindProject(ctx, id)
}

// EnsureProject returns the project with the given name, creating it first
// when absent. Startup seeding relies on this being idempotent.
func (s *BadgerStore) EnsureProject(ctx context.Context, name string) (domain.Project, error) {
	project, err := s.FindProjectByName(ctx, name)
	if err == nil {
		return project, nil
	}
	if err != errors.ErrProjectNotFound {
		return domain.Project{}, err
	}
	return s.CreateProject(name)
}

func toProject(rec record) domain.Project {
	return domain.Project{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
}
