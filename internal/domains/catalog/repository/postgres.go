package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library-backend/internal/domains/catalog/model"
	"library-backend/pkg/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	dialectPostgres = "postgres"
	itemsTable      = "items"
)

var itemSelectColumns = []interface{}{
	"id", "title", "author", "isbn", "category",
	"total_copies", "available_copies", "created_at", "updated_at",
}

const itemColumns = `
	id, title, author, isbn, category,
	total_copies, available_copies, created_at, updated_at
`

// postgresRepository implements RepositoryInterface
// db là pool hoặc pgx.Tx tùy nơi khởi tạo
type postgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository creates a new PostgreSQL catalog repository
func NewPostgresRepository(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func scanItem(row pgx.Row) (*model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Author,
		&item.ISBN,
		&item.Category,
		&item.TotalCopies,
		&item.AvailableCopies,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create implements RepositoryInterface.Create
func (r *postgresRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (
			id, title, author, isbn, category,
			total_copies, available_copies, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Author,
		item.ISBN,
		item.Category,
		item.TotalCopies,
		item.AvailableCopies,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateISBNError(item.ISBN)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// GetByID implements RepositoryInterface.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get item by id: %w", err)
	}

	return item, nil
}

// GetByIDForUpdate implements RepositoryInterface.GetByIDForUpdate
func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to lock item: %w", err)
	}

	return item, nil
}

// GetByISBN implements RepositoryInterface.GetByISBN
func (r *postgresRepository) GetByISBN(ctx context.Context, isbn string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE isbn = $1 AND deleted_at IS NULL`

	item, err := scanItem(r.db.QueryRow(ctx, query, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: isbn=%s", model.ErrItemNotFound, isbn)
		}
		return nil, fmt.Errorf("failed to get item by isbn: %w", err)
	}

	return item, nil
}

// List implements RepositoryInterface.List
func (r *postgresRepository) List(ctx context.Context, filter model.ListItemsRequest) ([]model.Item, int, error) {
	filter.Normalize()

	conds := []goqu.Expression{goqu.C("deleted_at").IsNull()}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		conds = append(conds, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
		))
	}
	if filter.Category != "" {
		conds = append(conds, goqu.C("category").Eq(filter.Category))
	}

	base := goqu.Dialect(dialectPostgres).From(itemsTable).Prepared(true).Where(conds...)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	listSQL, listArgs, err := base.
		Select(itemSelectColumns...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset())).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	items, err := r.queryItems(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}

	return items, totalCount, nil
}

// ListAll implements RepositoryInterface.ListAll
func (r *postgresRepository) ListAll(ctx context.Context) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted_at IS NULL ORDER BY title ASC, id ASC`
	return r.queryItems(ctx, query)
}

func (r *postgresRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]model.Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// UpdateDetails implements RepositoryInterface.UpdateDetails
func (r *postgresRepository) UpdateDetails(ctx context.Context, item *model.Item) error {
	query := `
		UPDATE items
		SET
			title = $2,
			author = $3,
			isbn = $4,
			category = $5,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING total_copies, available_copies, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		item.ID,
		item.Title,
		item.Author,
		item.ISBN,
		item.Category,
	).Scan(&item.TotalCopies, &item.AvailableCopies, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewItemNotFoundError(item.ID)
		}
		if isUniqueViolation(err) {
			return model.NewDuplicateISBNError(item.ISBN)
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// Delete implements RepositoryInterface.Delete
// Soft delete: loans giữ FK tới item để lịch sử không bị mất
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE items SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.NewItemNotFoundError(id)
	}

	return nil
}

// UpdateAvailability implements RepositoryInterface.UpdateAvailability
func (r *postgresRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, delta int) (*model.Item, error) {
	return r.AdjustCopies(ctx, id, 0, delta)
}

// AdjustCopies implements RepositoryInterface.AdjustCopies
func (r *postgresRepository) AdjustCopies(ctx context.Context, id uuid.UUID, totalDelta, availableDelta int) (*model.Item, error) {
	query := `
		UPDATE items
		SET
			total_copies = total_copies + $2,
			available_copies = available_copies + $3,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, id, totalDelta, availableDelta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to adjust item copies: %w", err)
	}

	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
