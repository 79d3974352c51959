package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/models"
)

const selectFiles = `SELECT f.id, f.title, f.uploader, f.category_id, f.demo, f.created_at, c.name
	FROM files f LEFT JOIN categories c ON c.id = f.category_id`

// patchColumns maps patchable API fields to columns.
var patchColumns = map[string]string{
	"title":    "title",
	"category": "category_id",
	"demo":     "demo",
	"key":      "key",
	"uploader": "uploader",
}

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f            models.File
		categoryID   sql.NullString
		categoryName sql.NullString
	)
	if err := s.Scan(&f.ID, &f.Title, &f.Uploader, &categoryID, &f.Demo, &f.CreatedAt, &categoryName); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		f.CategoryID = categoryID.String
		f.Category = &models.Category{ID: categoryID.String, Name: categoryName.String}
	}
	return &f, nil
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []*models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, selectFiles+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetKey(ctx context.Context, id string) (string, error) {
	var key string
	if err := r.db.QueryRowContext(ctx, `SELECT key FROM files WHERE id = $1`, id).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.FileFilter) ([]*models.File, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Title != "" {
		add("f.title = $%d", filter.Title)
	}
	if filter.CategoryID != "" {
		add("f.category_id = $%d", filter.CategoryID)
	}
	if filter.Uploader != "" {
		add("f.uploader = $%d", filter.Uploader)
	}
	if filter.Demo != nil {
		add("f.demo = $%d", *filter.Demo)
	}

	query := selectFiles
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY f.title ASC`

	return r.queryFiles(ctx, query, args...)
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.File, error) {
	if len(ids) == 0 {
		return []*models.File{}, nil
	}
	query := selectFiles + ` WHERE f.id IN (` + dbx.Placeholders(1, len(ids)) + `) ORDER BY f.title ASC`
	return r.queryFiles(ctx, query, dbx.Args(ids)...)
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, categoryID string, offset, limit int) ([]*models.File, error) {
	query := selectFiles + ` WHERE f.category_id = $1 ORDER BY f.seq ASC OFFSET $2 LIMIT $3`
	return r.queryFiles(ctx, query, categoryID, offset, limit)
}

func (r *PostgresRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		col, ok := patchColumns[field]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", common.ErrorValidation, field)
		}
		v, err := patchValue(field, patch[field])
		if err != nil {
			return err
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id)

	query := `UPDATE files SET ` + strings.Join(sets, ", ") + fmt.Sprintf(` WHERE id = $%d`, len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func patchValue(field string, v any) (any, error) {
	switch field {
	case "demo":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a boolean", common.ErrorValidation, field)
		}
		return b, nil
	case "category":
		// a null category detaches the file
		if v == nil {
			return nil, nil
		}
		fallthrough
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", common.ErrorValidation, field)
		}
		if field == "uploader" {
			s = strings.ToLower(s)
		}
		return s, nil
	}
}

func (r *PostgresRepository) SetDemo(ctx context.Context, id string, demo bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE files SET demo = $1 WHERE id = $2`, demo, id)
	if err != nil {
		return fmt.Errorf("failed to set demo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
