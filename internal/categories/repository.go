package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Repository persists categories.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, id int64, category Category) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var categoryColumns = []string{"id", "code", "name", "created_at", "updated_at"}

// listQueries builds the count and page queries for filters.
func listQueries(filters ListFilters) (count, page squirrel.SelectBuilder) {
	count = psql.Select("COUNT(*)").From("categories")
	page = psql.Select(categoryColumns...).From("categories")
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + search + "%"
		match := squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"code": pattern}}
		count = count.Where(match)
		page = page.Where(match)
	}
	page = page.OrderBy(sortOrder(filters.SortBy, filters.SortDir), "id ASC")
	if filters.Limit > 0 {
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		page = page.Limit(uint64(filters.Limit)).Offset(uint64(offset))
	}
	return count, page
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Category, int, error) {
	countQuery, pageQuery := listQueries(filters)

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("categories: build count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageSQL, pageArgs, err := pageQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("categories: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, created_at, updated_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (code, name, created_at, updated_at)
VALUES ($1, $2, $3, $3) RETURNING id, created_at, updated_at`, category.Code, category.Name, now).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if shared.IsUniqueViolation(err) {
		return Category{}, shared.ErrDuplicate
	}
	return category, err
}

func (r *repository) Update(ctx context.Context, id int64, category Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET code = $1, name = $2, updated_at = $3 WHERE id = $4`,
		category.Code, category.Name, time.Now(), id)
	if shared.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	default:
		return "name " + dir
	}
}
