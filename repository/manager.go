package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager bundles the session layer's repositories behind one handle that
// the composition root constructs once and passes by reference.
type Manager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Revocations() Revocations
}

type mngr struct {
	db          *bun.DB
	revocations Revocations
}

func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:          db,
		revocations: NewRevocationsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.revocations == nil {
		return errors.New("repository revocations should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Revocations() Revocations {
	return m.revocations
}
