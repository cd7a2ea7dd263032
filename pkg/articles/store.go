package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound indicates the requested article or category does not exist.
var ErrNotFound = errors.New("article not found")

const articleColumns = `id, title, slug, summary, content, category_id, author_id, status,
	view_count, like_count, published_at, created_at, updated_at`

// Store provides article and category persistence over database/sql.
type Store struct {
	db *sql.DB
}

// NewStore creates a new article store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Exists reports whether an article with the given ID exists.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return true, nil
}

// GetByID fetches a single article by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id = $1`, articleColumns)
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// GetBySlug fetches a single article by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE slug = $1`, articleColumns)
	return s.scanOne(s.db.QueryRowContext(ctx, query, slug))
}

// SlugByID returns just the slug for an article, used for targeted cache
// invalidation without loading the whole row.
func (s *Store) SlugByID(ctx context.Context, id int64) (string, error) {
	var slug string
	err := s.db.QueryRowContext(ctx, `SELECT slug FROM articles WHERE id = $1`, id).Scan(&slug)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("failed to query slug: %w", err)
	}
	return slug, nil
}

// orderColumns is the allowlist for ListOptions.OrderBy.
var orderColumns = map[string]bool{
	"created_at":   true,
	"published_at": true,
	"view_count":   true,
	"like_count":   true,
	"title":        true,
}

// List returns a page of articles matching the options plus the total
// match count.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Article, int64, error) {
	var conds []string
	var args []interface{}

	addCond := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if opts.Status != "" {
		addCond("status = $%d", opts.Status)
	}
	if opts.CategoryID > 0 {
		addCond("category_id = $%d", opts.CategoryID)
	}
	if opts.AuthorID > 0 {
		addCond("author_id = $%d", opts.AuthorID)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	orderBy := opts.OrderBy
	if !orderColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(opts.OrderDir, "asc") {
		orderDir = "ASC"
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`SELECT %s FROM articles%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		articleColumns, where, orderBy, orderDir, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var list []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating articles: %w", err)
	}

	return list, total, nil
}

// Create inserts a new article in draft status and fills in its ID and
// timestamps.
func (s *Store) Create(ctx context.Context, a *Article) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusDraft
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, slug, summary, content, category_id, author_id, status,
			view_count, like_count, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $9, $10)
		RETURNING id
	`, a.Title, a.Slug, a.Summary, a.Content, a.CategoryID, a.AuthorID, a.Status,
		a.PublishedAt, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an article.
func (s *Store) Update(ctx context.Context, a *Article) error {
	a.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET title = $1, slug = $2, summary = $3, content = $4, category_id = $5, updated_at = $6
		WHERE id = $7
	`, a.Title, a.Slug, a.Summary, a.Content, a.CategoryID, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return requireRow(res)
}

// SetStatus moves an article between draft/published/archived. Publishing
// stamps published_at on the first transition only.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	now := time.Now().UTC()

	var res sql.Result
	var err error
	if status == StatusPublished {
		res, err = s.db.ExecContext(ctx, `
			UPDATE articles
			SET status = $1, published_at = COALESCE(published_at, $2), updated_at = $3
			WHERE id = $4
		`, status, now, now, id)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE articles SET status = $1, updated_at = $2 WHERE id = $3
		`, status, now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to set article status: %w", err)
	}
	return requireRow(res)
}

// Delete removes an article; its event rows go with it via ON DELETE CASCADE.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return requireRow(res)
}

// Categories lists all categories ordered by name.
func (s *Store) Categories(ctx context.Context) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at FROM categories ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return list, nil
}

// CreateCategory inserts a new category and fills in its ID.
func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	c.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, created_at) VALUES ($1, $2, $3) RETURNING id
	`, c.Name, c.Slug, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Transactionally composable counter operations, consumed by
// pkg/engagement inside its own transactions.

// ExistsTx checks article existence inside a caller-owned transaction.
func ExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementView bumps view_count by one. Returns false when no row was
// updated, meaning the article vanished mid-transaction.
func IncrementView(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return execCounter(ctx, tx, `UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
}

// IncrementLike bumps like_count by one.
func IncrementLike(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return execCounter(ctx, tx, `UPDATE articles SET like_count = like_count + 1 WHERE id = $1`, id)
}

// DecrementLike drops like_count by one, clamped at zero.
func DecrementLike(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return execCounter(ctx, tx, `
		UPDATE articles
		SET like_count = CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END
		WHERE id = $1
	`, id)
}

func execCounter(ctx context.Context, tx *sql.Tx, query string, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanOne(row *sql.Row) (*Article, error) {
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return a, nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var summary, content sql.NullString
	var categoryID sql.NullInt64
	var publishedAt sql.NullTime

	err := row.Scan(&a.ID, &a.Title, &a.Slug, &summary, &content, &categoryID,
		&a.AuthorID, &a.Status, &a.ViewCount, &a.LikeCount, &publishedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	a.Summary = summary.String
	a.Content = content.String
	if categoryID.Valid {
		a.CategoryID = &categoryID.Int64
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
