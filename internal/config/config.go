package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ExcelPath  string
	JSONPath   string
	LedgerPath string

	DriveFolderID   string
	GCPSAKey        string
	GCPCredsFile    string
	DriveTimeoutSec int

	DBHost string
	DBPort int
	DBName string
	DBUser string
	DBPass string

	LoadStrategy string
	JoinPolicy   string

	CatalogSentinel    string
	CatalogCutSentinel int

	TelegramToken      string
	TelegramChatID     string
	TelegramTimeoutMs  int
	ReportCutoffDate   string
	ReportMonthStart   string
	ReportDashboardURL string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ExcelPath:  getEnv("EXCEL_PATH", filepath.Join(cwd, "data", "ClientesMarca.xlsx")),
		JSONPath:   getEnv("JSON_PATH", filepath.Join(cwd, "data", "RecomendadosMarca.json")),
		LedgerPath: getEnv("LEDGER_PATH", filepath.Join(cwd, "data", "runs.db")),

		DriveFolderID:   getEnv("DRIVE_FOLDER_ID", ""),
		GCPSAKey:        getEnv("GCP_SA_KEY", ""),
		GCPCredsFile:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", "google_credentials.json"),
		DriveTimeoutSec: getEnvInt("DRIVE_TIMEOUT_SEC", 60),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnvInt("DB_PORT", 5432),
		DBName: getEnv("DB_NAME", "postgres"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: getEnv("DB_PASS", ""),

		LoadStrategy: getEnv("LOAD_STRATEGY", "append"),
		JoinPolicy:   getEnv("JOIN_POLICY", "keep_first"),

		CatalogSentinel:    getEnv("CATALOG_SENTINEL", "ID"),
		CatalogCutSentinel: getEnvInt("CATALOG_CUT_SENTINEL", 2),

		TelegramToken:      getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramTimeoutMs:  getEnvInt("TELEGRAM_TIMEOUT_MS", 15000),
		ReportCutoffDate:   getEnv("REPORT_CUTOFF_DATE", "2025-06-14"),
		ReportMonthStart:   getEnv("REPORT_MONTH_START", "2025-06-01"),
		ReportDashboardURL: getEnv("REPORT_DASHBOARD_URL", "https://lookerstudio.google.com/reporting/1b952e87-75af-4570-b81f-a7d0191a095b"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// DSN builds the key=value connection string the pgx stdlib driver accepts.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=require",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
