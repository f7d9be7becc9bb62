// Package pgx implements the wicket user store on PostgreSQL via pgxpool.
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lmarand/wicket"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var _ wicket.UserStore = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}
