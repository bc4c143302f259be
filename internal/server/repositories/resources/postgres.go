package resources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/dbx"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const resourceColumns = `id, title, description, type, url, created_by, attachment_key, created_at, updated_at`

func (p *PostgresRepository) Create(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	query :=
		`INSERT INTO resources (id, title, description, type, url, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 `

	c := *r
	c.ID = uuid.NewString()
	c.CreatedAt = p.now().UTC()
	c.UpdatedAt = c.CreatedAt

	_, err := p.db.ExecContext(ctx, query, c.ID, c.Title, c.Description, string(c.Type), c.URL, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (p *PostgresRepository) Get(ctx context.Context, id string) (*models.Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`

	r := &models.Resource{}
	var typ string
	err := p.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Title, &r.Description, &typ, &r.URL, &r.CreatedBy, &r.AttachmentKey, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	r.Type = models.ResourceType(typ)
	return r, nil
}

func (p *PostgresRepository) Update(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	if _, err := uuid.Parse(r.ID); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE resources
		 SET title = $1, description = $2, type = $3, url = $4, updated_at = $5
		 WHERE id = $6
		 `

	c := *r
	c.UpdatedAt = p.now().UTC()

	res, err := p.db.ExecContext(ctx, query, c.Title, c.Description, string(c.Type), c.URL, c.UpdatedAt, c.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (p *PostgresRepository) SetAttachmentKey(ctx context.Context, id, key string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE resources SET attachment_key = $1, updated_at = $2 WHERE id = $3`,
		key, p.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (p *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := p.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (p *PostgresRepository) List(ctx context.Context) ([]*models.Resource, error) {
	return p.query(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY created_at DESC, id DESC`)
}

func (p *PostgresRepository) Recent(ctx context.Context, limit int) ([]*models.Resource, error) {
	return p.query(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (p *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Resource, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Resource{}
	for rows.Next() {
		r := &models.Resource{}
		var typ string
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &typ, &r.URL, &r.CreatedBy, &r.AttachmentKey, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r.Type = models.ResourceType(typ)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (p *PostgresRepository) CountByType(ctx context.Context) ([]models.TypeCount, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM resources GROUP BY type ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.TypeCount{}
	for rows.Next() {
		var tc models.TypeCount
		var typ string
		if err := rows.Scan(&typ, &tc.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tc.Type = models.ResourceType(typ)
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
