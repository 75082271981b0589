package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Revocation is the persisted revoked-at watermark for a subject. One row
// per subject; Revoke moves the watermark forward.
type Revocation struct {
	bun.BaseModel `bun:"table:session_revocations,alias:rev"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        string     `bun:"user_id,notnull,unique" json:"user_id,omitempty"`
	RevokedAt     time.Time  `bun:"revoked_at,notnull" json:"revoked_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Revocations is the revocation store surface, satisfying
// localjwt.RevocationStore on top of the generic repository.
type Revocations interface {
	repository.Repository[*Revocation]

	Revoke(ctx context.Context, uid string, at time.Time) error
	RevokeTx(ctx context.Context, tx bun.IDB, uid string, at time.Time) error
	RevokedAt(ctx context.Context, uid string) (time.Time, error)
}

type revocations struct {
	repository.Repository[*Revocation]
	db *bun.DB
}

var _ Revocations = (*revocations)(nil)

func NewRevocationsRepository(db *bun.DB) Revocations {
	repo := repository.NewRepository[*Revocation](db, repository.ModelHandlers[*Revocation]{
		NewRecord: func() *Revocation { return &Revocation{} },
		GetID: func(r *Revocation) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Revocation, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &revocations{
		Repository: repo,
		db:         db,
	}
}

func (r *revocations) Revoke(ctx context.Context, uid string, at time.Time) error {
	return r.RevokeTx(ctx, r.db, uid, at)
}

func (r *revocations) RevokeTx(ctx context.Context, tx bun.IDB, uid string, at time.Time) error {
	rec := &Revocation{
		ID:        uuid.New(),
		UserID:    uid,
		RevokedAt: at,
	}

	_, err := tx.NewInsert().
		Model(rec).
		On("CONFLICT (user_id) DO UPDATE").
		Set("revoked_at = EXCLUDED.revoked_at").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	return err
}

func (r *revocations) RevokedAt(ctx context.Context, uid string) (time.Time, error) {
	rec := &Revocation{}

	err := r.db.NewSelect().
		Model(rec).
		Where("user_id = ?", uid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	return rec.RevokedAt, nil
}
