package repofake

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/operators"
)

var _ operators.Repo = (*FakeOperatorRepo)(nil)

type FakeOperatorRepo struct {
	ops  map[string]*operators.Operator
	lock sync.RWMutex
}

func NewFakeOperatorRepo() *FakeOperatorRepo {
	return &FakeOperatorRepo{ops: make(map[string]*operators.Operator)}
}

func (fr *FakeOperatorRepo) Upsert(op *operators.Operator) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	fr.ops[op.ID] = op.Clone()
	return nil
}

func (fr *FakeOperatorRepo) Delete(id string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if _, ok := fr.ops[id]; !ok {
		return errors.ErrOperatorNotFound
	}
	delete(fr.ops, id)
	return nil
}

func (fr *FakeOperatorRepo) GetByID(id string) (*operators.Operator, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	op, ok := fr.ops[id]
	if !ok {
		return nil, errors.ErrOperatorNotFound
	}
	return op.Clone(), nil
}

func (fr *FakeOperatorRepo) GetByUsername(username string) (*operators.Operator, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	for _, op := range fr.ops {
		if op.Username == username {
			return op.Clone(), nil
		}
	}
	return nil, errors.ErrOperatorNotFound
}

func (fr *FakeOperatorRepo) GetByEmail(email string) (*operators.Operator, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	for _, op := range fr.ops {
		if op.Email != "" && strings.EqualFold(op.Email, email) {
			return op.Clone(), nil
		}
	}
	return nil, errors.ErrOperatorNotFound
}

func (fr *FakeOperatorRepo) List() ([]*operators.Operator, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	ops := make([]*operators.Operator, 0, len(fr.ops))
	for _, op := range fr.ops {
		ops = append(ops, op.Clone())
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Username < ops[j].Username })
	return ops, nil
}
