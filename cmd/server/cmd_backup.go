package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kleverson/cartas/internal/backup"
	"github.com/kleverson/cartas/internal/config"
	"github.com/kleverson/cartas/internal/logger"
	"github.com/kleverson/cartas/internal/server"
	"github.com/kleverson/cartas/internal/storage"
)

// BackupFlags holds the command-line flags for the backup command
type BackupFlags struct {
	Output  string
	Upload  bool
	CRC32   bool
	DryRun  bool
	Yes     bool
	Verbose bool
}

// clock is replaced in tests
var clock = time.Now

func cmdBackup(args []string) {
	if err := runBackup(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newBackupFlagSet(flags *BackupFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	fs.StringVar(&flags.Output, "output", "", "Directory the archive is written to")
	fs.BoolVar(&flags.Upload, "upload", false, "Upload the archive to the configured S3 bucket")
	fs.BoolVar(&flags.CRC32, "crc32", false, "Write real CRC-32 checksums")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Show what would be exported without creating files")
	fs.BoolVar(&flags.Yes, "yes", false, "Overwrite an existing archive without asking")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Println(`Export posts and leads to a ZIP archive of CSV files

Usage: cartas backup [directory] [options]

The archive is named backup_YYYY-MM-DD.zip after the current date in the
configured time zone. The directory may be given as the first argument or
with --output.

Options:`)
		printFlags(fs)
		fmt.Println(`
Examples:
  cartas backup ./backups
  cartas backup --output ./backups --crc32
  cartas backup --upload
  cartas backup ./backups --dry-run`)
	}
	return fs
}

func parseBackupFlags(args []string) (*BackupFlags, error) {
	flags := &BackupFlags{}
	fs := newBackupFlagSet(flags)

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return nil, err
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		if flags.Output != "" && flags.Output != rest[0] {
			return nil, fmt.Errorf("output directory given twice: %s and %s", flags.Output, rest[0])
		}
		flags.Output = rest[0]
	default:
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[1:], " "))
	}

	if flags.Output == "" && !flags.Upload && !flags.DryRun {
		return nil, errors.New("an output directory or --upload is required")
	}
	return flags, nil
}

func runBackup(ctx context.Context, args []string) error {
	flags, err := parseBackupFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if flags.Verbose {
		level = logger.ParseLevel("debug")
	}
	logger.InitializeTextTo(os.Stderr, level)

	if flags.CRC32 {
		cfg.Backup.CRC32 = true
	}
	if flags.Upload && !cfg.Backup.S3.Enabled() {
		return errors.New("--upload requires CARTAS_S3_BUCKET to be set")
	}
	if !flags.Upload {
		cfg.Backup.S3 = config.S3Config{}
	}

	store, err := storage.NewDuckDBStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	// One timestamp names the archive for both the overwrite check and Create
	startedAt := clock()
	svc, err := server.NewBackupService(ctx, cfg, store,
		backup.WithClock(func() time.Time { return startedAt }))
	if err != nil {
		return err
	}

	posts, leads, err := svc.Count(ctx)
	if err != nil {
		return err
	}

	filename := svc.Filename(startedAt)
	var target string
	if flags.Output != "" {
		target = filepath.Join(flags.Output, filename)
	}

	printBackupPreview(cfg.DatabasePath, target, flags.Upload, posts, leads)

	if flags.DryRun {
		fmt.Println("\nDry run - no files created.")
		return nil
	}

	if target != "" && !flags.Yes {
		if _, err := os.Stat(target); err == nil {
			if !confirm(fmt.Sprintf("%s already exists. Overwrite?", target)) {
				fmt.Println("Backup cancelled.")
				return nil
			}
		}
	}

	res, err := svc.Create(ctx)
	if err != nil {
		return err
	}

	if target != "" {
		if err := os.MkdirAll(flags.Output, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(target, res.Data, 0644); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
	}

	fmt.Println()
	fmt.Println(res.Summary())
	if target != "" {
		fmt.Printf("  File:     %s (%s)\n", target, formatSize(int64(len(res.Data))))
	}
	if res.Record.UploadedTo != "" {
		fmt.Printf("  Uploaded: %s\n", res.Record.UploadedTo)
	}
	return nil
}

func printBackupPreview(database, target string, upload bool, posts, leads int) {
	fmt.Println("Backup Preview")
	fmt.Println("==============")
	fmt.Printf("Database: %s\n", database)
	if target != "" {
		fmt.Printf("Archive:  %s\n", target)
	}
	if upload {
		fmt.Println("Upload:   yes")
	}
	fmt.Println()
	fmt.Println("Rows:")
	fmt.Printf("  Posts: %d\n", posts)
	fmt.Printf("  Leads: %d\n", leads)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// formatSize formats bytes as human-readable size
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
