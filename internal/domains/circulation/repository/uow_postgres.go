package repository

import (
	"context"

	catalogRepo "library-backend/internal/domains/catalog/repository"
	"library-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresUnitOfWork bind cả hai repository vào cùng một pgx.Tx
type postgresUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPostgresUnitOfWork creates a UnitOfWork backed by pgx transactions
func NewPostgresUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &postgresUnitOfWork{pool: pool}
}

// WithinTx implements UnitOfWork.WithinTx
func (u *postgresUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return database.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, Stores{
			Items: catalogRepo.NewPostgresRepository(tx),
			Loans: NewPostgresRepository(tx),
		})
	})
}
