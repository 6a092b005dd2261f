package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repos bundles the repositories bound to one connection or transaction.
type Repos struct {
	Trips TripRepo
	POIs  POIRepo
	Items ItineraryRepo
}

// NewRepos binds every repository to db.
func NewRepos(db db) Repos {
	return Repos{
		Trips: NewTripRepo(db),
		POIs:  NewPOIRepo(db),
		Items: NewItineraryRepo(db),
	}
}

// Transactor runs a unit of work in one database transaction. The work
// receives repos bound to that transaction; returning an error rolls
// everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Repos) error) error
}

// beginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx (the latter
// starts a savepoint, which keeps rolled-back integration tests isolated).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTransactor struct {
	db beginner
}

// NewTransactor constructs a Transactor over a pool, connection or transaction.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.Transactor.WithinTx: %w", err)
	}
	return nil
}
