package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/dbx"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password, name, completed_pages, last_viewed_page, completed_resources, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING version
		 `

	created := u.Clone()
	created.ID = uuid.NewString()
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt
	if created.CompletedPages == nil {
		created.CompletedPages = []int{}
	}
	if created.CompletedResources == nil {
		created.CompletedResources = []string{}
	}

	pages, resources, err := encodeSets(created)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		created.ID, created.Email, created.PasswordHash, created.Name,
		pages, created.LastViewedPage, resources, created.CreatedAt).Scan(&created.Version)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password, name, github_username, microsoft_learn_email,
		        completed_pages, last_viewed_page, completed_resources, version, created_at, updated_at
		 FROM users
		 WHERE email = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, email, '' AS password, name, github_username, microsoft_learn_email,
		        completed_pages, last_viewed_page, completed_resources, version, created_at, updated_at
		 FROM users
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var pages, resources []byte

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.GitHubUsername, &u.MicrosoftLearnEmail,
		&pages, &u.LastViewedPage, &resources, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(pages, &u.CompletedPages); err != nil {
		return nil, fmt.Errorf("decode completed_pages: %w", err)
	}
	if err := json.Unmarshal(resources, &u.CompletedResources); err != nil {
		return nil, fmt.Errorf("decode completed_resources: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) UpdateProgress(ctx context.Context, u *models.User) error {
	query :=
		`UPDATE users
		 SET github_username = $1, microsoft_learn_email = $2, completed_pages = $3,
		     last_viewed_page = $4, completed_resources = $5, version = version + 1, updated_at = $6
		 WHERE id = $7 AND version = $8
		 RETURNING version
		 `

	pages, resources, err := encodeSets(u)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	var version int64
	err = r.db.QueryRowContext(ctx, query,
		u.GitHubUsername, u.MicrosoftLearnEmail, pages, u.LastViewedPage, resources, now,
		u.ID, u.Version).Scan(&version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	u.Version = version
	u.UpdatedAt = now
	return nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE users SET password = $1, updated_at = $2
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, passwordHash, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) PullCompletedResource(ctx context.Context, resourceID string) error {
	query :=
		`UPDATE users
		 SET completed_resources = completed_resources - $1::text, version = version + 1
		 WHERE completed_resources @> jsonb_build_array($1::text)
		 `

	if _, err := r.db.ExecContext(ctx, query, resourceID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CompletionStats(ctx context.Context) (models.CompletionStats, error) {
	query :=
		`SELECT COALESCE(SUM(jsonb_array_length(completed_resources)), 0)::bigint,
		        COALESCE(AVG(jsonb_array_length(completed_resources)), 0)::float8,
		        COUNT(*) FILTER (WHERE jsonb_array_length(completed_resources) > 0)
		 FROM users
		 `

	var st models.CompletionStats
	err := r.db.QueryRowContext(ctx, query).Scan(&st.TotalCompletions, &st.AvgCompletions, &st.UsersWithCompletions)
	if err != nil {
		return models.CompletionStats{}, fmt.Errorf("db error: %w", err)
	}
	return st, nil
}

func encodeSets(u *models.User) (string, string, error) {
	pages := u.CompletedPages
	if pages == nil {
		pages = []int{}
	}
	resources := u.CompletedResources
	if resources == nil {
		resources = []string{}
	}

	p, err := json.Marshal(pages)
	if err != nil {
		return "", "", fmt.Errorf("encode completed_pages: %w", err)
	}
	r, err := json.Marshal(resources)
	if err != nil {
		return "", "", fmt.Errorf("encode completed_resources: %w", err)
	}
	return string(p), string(r), nil
}
