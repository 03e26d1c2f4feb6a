package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/microcosm-cc/bluemonday"
)

type DuckDBStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	sanitizer *bluemonday.Policy
}

func NewDuckDBStore(dbPath string) (*DuckDBStore, error) {
	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &DuckDBStore{
		db:        db,
		sanitizer: newBodyPolicy(),
	}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func (s *DuckDBStore) DB() *sql.DB {
	return s.db
}

func (s *DuckDBStore) initSchema(ctx context.Context) error {
	schemas := []string{
		schemaPosts,
		schemaLeads,
		indexPosts,
		indexLeads,
	}

	for _, schema := range schemas {
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("executing schema: %w", err)
		}
	}

	return nil
}

// newBodyPolicy allows the rich text produced by the admin editor and strips scripts,
// event handlers and other active content. Heading ids are kept so the reading page can
// link to sections. Video embeds are iframes served over https.
func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStyling()

	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(httpsURL).OnElements("iframe")
	p.AllowAttrs("allow", "allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("iframe", "img")
	p.AllowAttrs("loading").Matching(loadingHint).OnElements("iframe", "img")
	p.AllowAttrs("target").Matching(linkTarget).OnElements("a")
	p.AllowStyles(
		"width", "height", "max-width", "text-align", "color", "background-color",
		"font-weight", "font-style", "text-decoration", "margin", "padding", "float", "display",
	).Globally()
	return p
}

var (
	httpsURL    = regexp.MustCompile(`^https://`)
	loadingHint = regexp.MustCompile(`^(lazy|eager)$`)
	linkTarget  = regexp.MustCompile(`^(_blank|_self)$`)
)
