// Package backup exports posts and leads into a ZIP archive of CSV files and
// keeps a short history of the backups it produced.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	_ "time/tzdata" // America/Sao_Paulo on hosts without zoneinfo

	"golang.org/x/sync/errgroup"

	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/archive"
	"github.com/kleverson/cartas/internal/logger"
)

// DefaultTimezone is the zone backup dates are rendered in.
const DefaultTimezone = "America/Sao_Paulo"

// Source provides the rows exported by a backup.
type Source interface {
	ListAllPosts(ctx context.Context) ([]api.Post, error)
	ListAllLeads(ctx context.Context) ([]api.Lead, error)
}

// FetchError reports that one of the row sets could not be read.
type FetchError struct {
	Kind string // "posts" or "leads"
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is a finished backup.
type Result struct {
	Filename   string
	Data       []byte
	PostsCount int
	LeadsCount int
	Record     Record
}

// Summary returns the message shown to the operator after a successful backup.
func (r *Result) Summary() string {
	return fmt.Sprintf("Backup exportado com sucesso (%d posts, %d leads)", r.PostsCount, r.LeadsCount)
}

// Service creates backups from a Source.
type Service struct {
	src      Source
	history  *History
	now      func() time.Time
	loc      *time.Location
	uploader Uploader
	crc32    bool
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHistory replaces the default four-entry history.
func WithHistory(h *History) ServiceOption {
	return func(s *Service) { s.history = h }
}

// WithClock sets the time source used for file names and metadata.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone dates are rendered in.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) { s.loc = loc }
}

// WithUploader sends every backup to u before it is recorded.
func WithUploader(u Uploader) ServiceOption {
	return func(s *Service) { s.uploader = u }
}

// WithCRC32 makes archives carry real checksums.
func WithCRC32(enabled bool) ServiceOption {
	return func(s *Service) { s.crc32 = enabled }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// NewService creates a backup service reading from src.
func NewService(src Source, opts ...ServiceOption) *Service {
	s := &Service{
		src: src,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = NewHistory(DefaultHistorySize)
	}
	if s.loc == nil {
		s.loc = time.UTC
		if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
			s.loc = loc
		}
	}
	if s.log == nil {
		s.log = logger.WithComponent("backup")
	}
	return s
}

// History returns the records of recent backups, newest first.
func (s *Service) History() []Record {
	return s.history.List()
}

// ClearHistory forgets every recorded backup.
func (s *Service) ClearHistory() {
	s.history.Clear()
}

// Filename returns the archive name for a backup taken at t.
func (s *Service) Filename(t time.Time) string {
	return "backup_" + t.In(s.loc).Format("2006-01-02") + ".zip"
}

// Count returns the number of posts and leads a backup would contain.
func (s *Service) Count(ctx context.Context) (posts, leads int, err error) {
	p, l, err := s.fetch(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(p), len(l), nil
}

// Create reads every post and lead, encodes them into an archive, uploads it
// when an uploader is configured and records it in the history. Nothing is
// recorded when any step fails.
func (s *Service) Create(ctx context.Context) (*Result, error) {
	start := time.Now()

	posts, leads, err := s.fetch(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Backup failed", "error", err)
		return nil, err
	}

	now := s.now()
	data, err := s.encode(posts, leads, now)
	if err != nil {
		s.log.ErrorContext(ctx, "Backup failed", "error", err)
		return nil, err
	}

	res := &Result{
		Filename:   s.Filename(now),
		Data:       data,
		PostsCount: len(posts),
		LeadsCount: len(leads),
	}

	var location string
	if s.uploader != nil {
		location, err = s.uploader.Upload(ctx, res.Filename, data)
		if err != nil {
			s.log.ErrorContext(ctx, "Backup upload failed", "filename", res.Filename, "error", err)
			return nil, err
		}
	}

	res.Record = Record{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		CreatedAt:  now.UTC(),
		PostsCount: res.PostsCount,
		LeadsCount: res.LeadsCount,
		Filename:   res.Filename,
		Size:       int64(len(data)),
		UploadedTo: location,
	}
	s.history.Add(res.Record)

	s.log.InfoContext(ctx, "Backup created",
		"filename", res.Filename,
		"posts", res.PostsCount,
		"leads", res.LeadsCount,
		"bytes", len(data),
		"uploaded_to", location,
		"duration", time.Since(start),
	)

	return res, nil
}

func (s *Service) fetch(ctx context.Context) ([]api.Post, []api.Lead, error) {
	var (
		posts []api.Post
		leads []api.Lead
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if posts, err = s.src.ListAllPosts(gctx); err != nil {
			return &FetchError{Kind: "posts", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if leads, err = s.src.ListAllLeads(gctx); err != nil {
			return &FetchError{Kind: "leads", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return posts, leads, nil
}

func (s *Service) encode(posts []api.Post, leads []api.Lead, now time.Time) ([]byte, error) {
	postsCSV, err := RenderCSV(PostColumns(s.loc), posts)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", PostsFile, err)
	}
	leadsCSV, err := RenderCSV(LeadColumns(s.loc), leads)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", LeadsFile, err)
	}
	metaCSV, err := RenderCSV(MetadataColumns(s.loc), []Metadata{{
		CreatedAt:  now,
		PostsCount: len(posts),
		LeadsCount: len(leads),
	}})
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", MetadataFile, err)
	}

	var opts []archive.Option
	if s.crc32 {
		opts = append(opts, archive.WithCRC32())
	}

	data, err := archive.Encode([]archive.Entry{
		{Name: PostsFile, Content: postsCSV},
		{Name: LeadsFile, Content: leadsCSV},
		{Name: MetadataFile, Content: metaCSV},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("encoding archive: %w", err)
	}
	return data, nil
}
