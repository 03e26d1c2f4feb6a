package api

import "time"

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

// Post represents a letter/article
type Post struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle,omitempty"`
	Description   string     `json:"description,omitempty"`
	Body          string     `json:"body,omitempty"`
	CoverImage    string     `json:"coverImage,omitempty"`
	Category      string     `json:"category"`
	Status        PostStatus `json:"status"`
	Featured      bool       `json:"featured"`
	Popular       bool       `json:"popular"`
	ShowUpdatedAt bool       `json:"showUpdatedAt"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	AuthorID      string     `json:"authorId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PostInput is the body of create and update requests
type PostInput struct {
	Slug          string     `json:"slug" validate:"required,max=200"`
	Title         string     `json:"title" validate:"required,max=255"`
	Subtitle      string     `json:"subtitle" validate:"max=255"`
	Description   string     `json:"description" validate:"max=1000"`
	Body          string     `json:"body"`
	CoverImage    string     `json:"coverImage" validate:"omitempty,url"`
	Category      string     `json:"category" validate:"required,max=100"`
	Status        PostStatus `json:"status" validate:"required,oneof=draft scheduled published"`
	Featured      bool       `json:"featured"`
	Popular       bool       `json:"popular"`
	ShowUpdatedAt bool       `json:"showUpdatedAt"`
	ScheduledAt   *time.Time `json:"scheduledAt" validate:"required_if=Status scheduled"`
	PublishedAt   *time.Time `json:"publishedAt"`
	AuthorID      string     `json:"authorId"`
}

// PostFilter narrows public post listings
type PostFilter struct {
	Category  string
	Featured  bool
	Popular   bool
	ExcludeID string
	Limit     int
}

// PostsResponse wraps a post listing
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

// CategoriesResponse lists the distinct categories of published posts
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// Lead is a community sign-up (name + WhatsApp number)
type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	WhatsApp   string    `json:"whatsapp"`
	ArticleURL string    `json:"articleUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateLeadRequest is the public lead capture payload
type CreateLeadRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	WhatsApp   string `json:"whatsapp" validate:"required,e164"`
	ArticleURL string `json:"articleUrl" validate:"omitempty,url"`
}

// LeadsResponse is a page of leads for the admin console
type LeadsResponse struct {
	Leads      []Lead `json:"leads"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// SitemapEntry is the minimal post projection used for sitemap.xml
type SitemapEntry struct {
	Slug        string
	UpdatedAt   *time.Time
	PublishedAt *time.Time
}

// BackupRecord describes one backup kept in the history
type BackupRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	PostsCount int       `json:"postsCount"`
	LeadsCount int       `json:"leadsCount"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedTo string    `json:"uploadedTo,omitempty"`
}

// BackupHistoryResponse lists recent backups, newest first
type BackupHistoryResponse struct {
	Backups []BackupRecord `json:"backups"`
}
