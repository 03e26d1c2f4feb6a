package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kleverson/cartas/internal/api"
)

// CreateLead stores a community sign-up
func (s *DuckDBStore) CreateLead(ctx context.Context, req *api.CreateLeadRequest) (*api.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead := &api.Lead{
		ID:         uuid.New().String(),
		Name:       req.Name,
		WhatsApp:   req.WhatsApp,
		ArticleURL: req.ArticleURL,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (id, name, whatsapp, article_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, lead.ID, lead.Name, lead.WhatsApp, nullString(lead.ArticleURL), lead.CreatedAt)
	if err != nil {
		return nil, api.NewStorageError("inserting lead", err)
	}

	return lead, nil
}

func (s *DuckDBStore) queryLeads(ctx context.Context, query string, args ...any) ([]api.Lead, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	var leads []api.Lead
	for rows.Next() {
		var l api.Lead
		var articleURL sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &l.WhatsApp, &articleURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		l.ArticleURL = articleURL.String
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leads: %w", err)
	}
	return leads, nil
}

// ListLeads returns one page of leads, newest first, plus the total count.
// page is 1-based.
func (s *DuckDBStore) ListLeads(ctx context.Context, page, pageSize int) ([]api.Lead, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting leads: %w", err)
	}

	leads, err := s.queryLeads(ctx, `
		SELECT id, name, whatsapp, article_url, created_at
		FROM leads
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// ListAllLeads returns every lead in sign-up order. Used by backups.
func (s *DuckDBStore) ListAllLeads(ctx context.Context) ([]api.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads, err := s.queryLeads(ctx, `
		SELECT id, name, whatsapp, article_url, created_at
		FROM leads
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, api.NewStorageError("listing leads", err)
	}
	return leads, nil
}

// CountLeads returns the number of stored leads
func (s *DuckDBStore) CountLeads(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&total); err != nil {
		return 0, fmt.Errorf("counting leads: %w", err)
	}
	return total, nil
}
