package articles

import "time"

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Article represents a single article with its denormalized engagement
// counters. The counters are maintained by pkg/engagement and must equal
// the corresponding event-row tallies at all times.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content,omitempty"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	AuthorID    int64      `json:"author_id"`
	Status      string     `json:"status"`
	ViewCount   int64      `json:"view_count"`
	LikeCount   int64      `json:"like_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Category represents an article category.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions filters and orders article listings. Zero values mean "no
// filter"; Page is 1-based.
type ListOptions struct {
	Status     string
	CategoryID int64
	AuthorID   int64
	Page       int
	Limit      int
	OrderBy    string
	OrderDir   string
}
