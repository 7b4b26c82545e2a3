package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ventasetl/internal/config"
)

func TestNewDriveFetcherRequiresFolderID(t *testing.T) {
	cfg := config.Config{GCPSAKey: "{}"}
	if _, err := NewDriveFetcher(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without DRIVE_FOLDER_ID")
	}
}

func TestNewDriveFetcherRejectsBadCredentials(t *testing.T) {
	cfg := config.Config{
		DriveFolderID: "folder-1",
		GCPSAKey:      `{"type":"not_a_service_account"}`,
	}
	_, err := NewDriveFetcher(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected error for non service-account credentials")
	}
	if !strings.Contains(err.Error(), "service-account credentials") {
		t.Fatalf("err=%v", err)
	}
}

func TestNewDriveFetcherMissingCredentialsFile(t *testing.T) {
	cfg := config.Config{
		DriveFolderID: "folder-1",
		GCPCredsFile:  filepath.Join(t.TempDir(), "nope.json"),
	}
	_, err := NewDriveFetcher(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected error when no credentials are available")
	}
	if !strings.Contains(err.Error(), "GCP_SA_KEY unset") {
		t.Fatalf("err=%v", err)
	}
}

func TestNewDriveFetcherReadsCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{DriveFolderID: "folder-1", GCPCredsFile: path}
	_, err := NewDriveFetcher(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
	// The file was read: the failure is the credential parse, not a missing file.
	if !strings.Contains(err.Error(), "parse service-account credentials") {
		t.Fatalf("err=%v", err)
	}
}
