//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"campus-chat/contract"
	"campus-chat/domain"
	errs "campus-chat/errors"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-yaml"
)

var _ contract.IDirectory = (*UserRepository)(nil)

type IUserRepository interface {
	contract.IDirectory
	SaveUser(ctx context.Context, user domain.User) error
}

// UserRepository backs the identity directory.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser validates and upserts a user.
func (u *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	if err := domain.ValidateUser(user); err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return update(ctx, u.db, func(txn *badger.Txn) error {
		return txn.Set([]byte(userPrefix+user.ID), data)
	})
}

func (u *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errs.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	return user, err
}

func (u *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

type directorySeed struct {
	Users []domain.User `yaml:"users"`
}

// SeedFromFile loads users from a YAML file of the form:
//
//	users:
//	  - id: u1
//	    name: Alice
//	    role: student
func (u *UserRepository) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read directory seed: %w", err)
	}
	return u.Seed(ctx, data)
}

func (u *UserRepository) Seed(ctx context.Context, data []byte) (int, error) {
	var seed directorySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse directory seed: %w", err)
	}
	for _, user := range seed.Users {
		if err := u.SaveUser(ctx, user); err != nil {
			return 0, err
		}
	}
	return len(seed.Users), nil
}
