// Package tomlrepo persists operators in a single TOML file.
package tomlrepo

import (
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/internal/tomlfile"
	"github.com/jrsteele09/go-wa-fleet/operators"
)

var _ operators.Repo = (*Repo)(nil)

type document struct {
	Operators []*operators.Operator `toml:"operators"`
}

// Repo keeps every operator in memory and rewrites the file on each change.
type Repo struct {
	path string
	lock sync.RWMutex
	ops  map[string]*operators.Operator
}

// Open loads path, or starts empty when it does not exist yet.
func Open(path string) (*Repo, error) {
	var doc document
	if _, err := tomlfile.Read(path, &doc); err != nil {
		return nil, errors.Wrapf(err, "[tomlrepo Open]")
	}

	r := &Repo{
		path: path,
		ops:  make(map[string]*operators.Operator, len(doc.Operators)),
	}
	for _, op := range doc.Operators {
		if op == nil || op.ID == "" {
			continue
		}
		if op.Bots == nil {
			op.Bots = []string{}
		}
		r.ops[op.ID] = op
	}
	return r, nil
}

func (r *Repo) Upsert(op *operators.Operator) error {
	if op == nil || op.ID == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "[tomlrepo Upsert] operator id is required")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	previous, existed := r.ops[op.ID]
	r.ops[op.ID] = op.Clone()
	if err := r.save(); err != nil {
		if existed {
			r.ops[op.ID] = previous
		} else {
			delete(r.ops, op.ID)
		}
		return err
	}
	return nil
}

func (r *Repo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	op, ok := r.ops[id]
	if !ok {
		return errors.Wrapf(errors.ErrOperatorNotFound, "%s", id)
	}
	delete(r.ops, id)
	if err := r.save(); err != nil {
		r.ops[id] = op
		return err
	}
	return nil
}

func (r *Repo) GetByID(id string) (*operators.Operator, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	op, ok := r.ops[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrOperatorNotFound, "%s", id)
	}
	return op.Clone(), nil
}

func (r *Repo) GetByUsername(username string) (*operators.Operator, error) {
	return r.find(func(op *operators.Operator) bool { return op.Username == username }, username)
}

func (r *Repo) GetByEmail(email string) (*operators.Operator, error) {
	return r.find(func(op *operators.Operator) bool {
		return op.Email != "" && strings.EqualFold(op.Email, email)
	}, email)
}

func (r *Repo) List() ([]*operators.Operator, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.sorted(), nil
}

func (r *Repo) find(match func(*operators.Operator) bool, key string) (*operators.Operator, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, op := range r.ops {
		if match(op) {
			return op.Clone(), nil
		}
	}
	return nil, errors.Wrapf(errors.ErrOperatorNotFound, "%s", key)
}

// sorted returns copies ordered by creation time, then username.
func (r *Repo) sorted() []*operators.Operator {
	ops := make([]*operators.Operator, 0, len(r.ops))
	for _, op := range r.ops {
		ops = append(ops, op.Clone())
	}
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.Before(ops[j].CreatedAt)
		}
		return ops[i].Username < ops[j].Username
	})
	return ops
}

func (r *Repo) save() error {
	if err := tomlfile.Write(r.path, document{Operators: r.sorted()}); err != nil {
		return errors.Wrapf(err, "[tomlrepo save]")
	}
	return nil
}
