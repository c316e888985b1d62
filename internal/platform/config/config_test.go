package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIREBASE_PROJECT_ID": "demo-project",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "demo-project" {
		t.Errorf("Firestore.ProjectID = %q, want demo-project", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "demo-project" {
		t.Errorf("PubSub.ProjectID = %q, want demo-project", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.EventTopic != "order-events" {
		t.Errorf("PubSub.EventTopic = %q, want order-events", cfg.PubSub.EventTopic)
	}
	if cfg.Orders.TxMaxAttempts != 5 {
		t.Errorf("Orders.TxMaxAttempts = %d, want 5", cfg.Orders.TxMaxAttempts)
	}
	if cfg.Orders.TxTimeout != 15*time.Second {
		t.Errorf("Orders.TxTimeout = %v, want 15s", cfg.Orders.TxTimeout)
	}
	if cfg.Orders.LowStockThreshold != 5 {
		t.Errorf("Orders.LowStockThreshold = %d, want 5", cfg.Orders.LowStockThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIREBASE_PROJECT_ID":        "demo-project",
			"API_FIRESTORE_PROJECT_ID":       "other-project",
			"API_SERVER_PORT":                "9090",
			"API_SERVER_READ_TIMEOUT":        "5s",
			"API_ORDERS_TX_MAX_ATTEMPTS":     "3",
			"API_ORDERS_LOW_STOCK_THRESHOLD": "10",
			"API_PUBSUB_DISABLED":            "true",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "other-project" {
		t.Errorf("Firestore.ProjectID = %q, want other-project", cfg.Firestore.ProjectID)
	}
	if cfg.Orders.TxMaxAttempts != 3 {
		t.Errorf("Orders.TxMaxAttempts = %d, want 3", cfg.Orders.TxMaxAttempts)
	}
	if cfg.Orders.LowStockThreshold != 10 {
		t.Errorf("Orders.LowStockThreshold = %d, want 10", cfg.Orders.LowStockThreshold)
	}
	if !cfg.PubSub.Disabled {
		t.Error("PubSub.Disabled = false, want true")
	}
}

func TestLoadMissingProject(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Load error = %v, want *ValidationError", err)
	}
	fields := vErr.Fields()
	found := false
	for _, f := range fields {
		if f == "Firebase.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Errorf("validation fields = %v, want Firebase.ProjectID included", fields)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport API_FIREBASE_PROJECT_ID=dotenv-project\nAPI_SERVER_PORT=\"7070\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "dotenv-project" {
		t.Errorf("Firebase.ProjectID = %q, want dotenv-project", cfg.Firebase.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %q, want 7070", cfg.Server.Port)
	}
}

func TestEnvMapPrecedenceOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("API_FIREBASE_PROJECT_ID=from-file\n"), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"API_FIREBASE_PROJECT_ID": "from-map"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "from-map" {
		t.Errorf("Firebase.ProjectID = %q, want from-map", cfg.Firebase.ProjectID)
	}
}
