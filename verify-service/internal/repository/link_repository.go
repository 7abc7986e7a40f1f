package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	sharedredis "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/storage"
	goredis "github.com/redis/go-redis/v9"
)

const LinkKeyPrefix = "link:view:"

// LinkRepository stores the curated loan link list. Lookups read through an
// optional Redis cache; every write drops the cached entry.
type LinkRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.LoanLink]
}

// NewLinkRepository builds the repository. A nil redisClient disables caching.
func NewLinkRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *LinkRepository {
	r := &LinkRepository{db: db}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[models.LoanLink](redisClient, LinkKeyPrefix, ttl)
	}
	return r
}

const linkColumns = `domain, status, institution_name, notes, created_at, updated_at`

func (r *LinkRepository) GetByDomain(ctx context.Context, domain string) (*models.LoanLink, error) {
	if r.cache != nil {
		if link, ok := r.cache.Get(ctx, domain); ok {
			return link, nil
		}
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM loan_links WHERE domain = $1`, domain)
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrLinkNotFound
	}
	if err != nil {
		return nil, errs.Store("get loan link", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, domain, link)
	}
	return link, nil
}

func (r *LinkRepository) List(ctx context.Context) ([]models.LoanLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM loan_links ORDER BY domain`)
	if err != nil {
		return nil, errs.Store("list loan links", err)
	}
	defer rows.Close()

	links := []models.LoanLink{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, errs.Store("scan loan link", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list loan links", err)
	}
	return links, nil
}

// Upsert inserts the link or replaces the status, institution and notes of an
// existing one. created_at is kept on update.
func (r *LinkRepository) Upsert(ctx context.Context, link *models.LoanLink) (*models.LoanLink, error) {
	query := `
		INSERT INTO loan_links (domain, status, institution_name, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (domain) DO UPDATE
		SET status = EXCLUDED.status,
		    institution_name = EXCLUDED.institution_name,
		    notes = EXCLUDED.notes,
		    updated_at = NOW()
		RETURNING ` + linkColumns

	row := r.db.QueryRowContext(ctx, query, link.Domain, link.Status, link.InstitutionName, storage.NullString(link.Notes))
	saved, err := scanLink(row)
	if err != nil {
		return nil, errs.Store("upsert loan link", err)
	}

	r.invalidate(ctx, saved.Domain)
	return saved, nil
}

func (r *LinkRepository) Delete(ctx context.Context, domain string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loan_links WHERE domain = $1`, domain)
	if err != nil {
		return errs.Store("delete loan link", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errs.Store("delete loan link", err)
	}

	r.invalidate(ctx, domain)
	if n == 0 {
		return errs.ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) invalidate(ctx context.Context, domain string) {
	if r.cache != nil {
		r.cache.Delete(ctx, domain)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*models.LoanLink, error) {
	var (
		link  models.LoanLink
		notes sql.NullString
	)
	if err := row.Scan(&link.Domain, &link.Status, &link.InstitutionName, &notes, &link.CreatedAt, &link.UpdatedAt); err != nil {
		return nil, err
	}
	link.Notes = notes.String
	return &link, nil
}
