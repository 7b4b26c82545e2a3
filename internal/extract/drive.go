package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"ventasetl/internal/config"
)

// DriveFetcher pulls source files from a Google Drive folder when they are
// not already on local disk. Credentials come from the GCP_SA_KEY env var
// (CI) or a local service-account file (development), same hybrid strategy
// the production job uses.
type DriveFetcher struct {
	service  *drive.Service
	folderID string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDriveFetcher(ctx context.Context, cfg config.Config, logger *slog.Logger) (*DriveFetcher, error) {
	if err := cfg.Require("DRIVE_FOLDER_ID", cfg.DriveFolderID); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var creds []byte
	switch {
	case cfg.GCPSAKey != "":
		logger.Info("authenticating to drive via env credentials")
		creds = []byte(cfg.GCPSAKey)
	default:
		blob, err := os.ReadFile(cfg.GCPCredsFile)
		if err != nil {
			return nil, fmt.Errorf("no drive credentials: GCP_SA_KEY unset and %s not readable", cfg.GCPCredsFile)
		}
		logger.Info("authenticating to drive via credentials file", slog.String("file", cfg.GCPCredsFile))
		creds = blob
	}

	jwtCfg, err := google.JWTConfigFromJSON(creds, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service-account credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("init drive service: %w", err)
	}
	return &DriveFetcher{
		service:  svc,
		folderID: cfg.DriveFolderID,
		timeout:  time.Duration(cfg.DriveTimeoutSec) * time.Second,
		logger:   logger,
	}, nil
}

// EnsureLocal downloads the named file from the configured folder into
// localPath unless it already exists there.
func (f *DriveFetcher) EnsureLocal(ctx context.Context, localPath string) error {
	if _, err := os.Stat(localPath); err == nil {
		f.logger.Info("source already local", slog.String("path", localPath))
		return nil
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	name := filepath.Base(localPath)
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", name, f.folderID)
	list, err := f.service.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list drive folder: %w", err)
	}
	if len(list.Files) == 0 {
		return fmt.Errorf("file %q not found in drive folder", name)
	}

	fileID := list.Files[0].Id
	f.logger.Info("downloading source from drive", slog.String("name", name), slog.String("fileId", fileID))

	resp, err := f.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("download %q: %w", name, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	f.logger.Info("source downloaded", slog.String("path", localPath))
	return nil
}
