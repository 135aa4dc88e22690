// Package filestore keeps credentials as one JSON document per phone under
// <root>/<phone>/creds.json, the layout the transport's multi-file auth state uses.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/internal/keylock"
)

const (
	storeDirMode = 0o700
	credsFileMod = 0o600
	credsFile    = "creds.json"
)

type Store struct {
	root  string
	locks *keylock.Map
}

var _ credentials.Store = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root), locks: keylock.New()}
}

func (s *Store) Load(ctx context.Context, phone string) (*credentials.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := s.dirForPhone(phone)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	data, err := os.ReadFile(filepath.Join(dir, credsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, credentials.ErrNotFound
		}
		return nil, fmt.Errorf("read credentials %q: %w", phone, err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials %q: %w", phone, err)
	}
	creds.Phone = phone
	return &creds, nil
}

func (s *Store) Save(ctx context.Context, creds *credentials.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if creds == nil {
		return errors.New("credentials cannot be nil")
	}

	dir, err := s.dirForPhone(creds.Phone)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials %q: %w", creds.Phone, err)
	}

	unlock := s.locks.Lock(creds.Phone)
	defer unlock()

	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	tmp := filepath.Join(dir, credsFile+".tmp")
	if err := os.WriteFile(tmp, data, credsFileMod); err != nil {
		return fmt.Errorf("write credentials %q: %w", creds.Phone, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, credsFile)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credentials %q: %w", creds.Phone, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, phone string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.dirForPhone(phone)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete credentials %q: %w", phone, err)
	}
	return nil
}

// List returns every phone that has a credentials document, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	var phones []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), credsFile)); err != nil {
			continue
		}
		phones = append(phones, e.Name())
	}
	sort.Strings(phones)
	return phones, nil
}

func (s *Store) dirForPhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", credentials.ErrInvalidPhone)
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.ContainsAny(cleaned, `/\`) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("%w: %q", credentials.ErrInvalidPhone, phone)
	}

	return filepath.Join(s.root, cleaned), nil
}
