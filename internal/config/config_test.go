package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/verdant/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "2m"

[database]
host = "localhost"
port = 5432
name = "verdant"
user = "verdant"
password = "verdant"
max_open_conns = 25
max_idle_conns = 5

[storage]
container_name = "samples"
connection_string = "UseDevelopmentStorage=true"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
api_key = "test-key"
chat_model = "gemini-test"

[classifier]
model_url = "https://models.example.com/leaf/model.json"
metadata_url = "https://models.example.com/leaf/metadata.json"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[pipeline]
generate_timeout = "45s"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadBase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadBase(t)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "samples" {
		t.Errorf("storage container: got %s, want samples", cfg.Storage.ContainerName)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if cfg.Agent.ChatModel != "gemini-test" || cfg.Agent.VisionModel != "gemini-test" {
		t.Errorf("agent models: got %s / %s", cfg.Agent.ChatModel, cfg.Agent.VisionModel)
	}
	if cfg.Classifier.ImageSize != 224 {
		t.Errorf("classifier image_size: got %d, want 224", cfg.Classifier.ImageSize)
	}
	if cfg.Auth.Enabled {
		t.Error("auth enabled by default")
	}
}

func TestPipelineDefaults(t *testing.T) {
	cfg := loadBase(t)

	if d := cfg.Pipeline.ClassifyTimeoutDuration(); d != 30*time.Second {
		t.Errorf("classify timeout: got %v", d)
	}
	if d := cfg.Pipeline.GenerateTimeoutDuration(); d != 30*time.Second {
		t.Errorf("generate timeout: got %v", d)
	}
	if d := cfg.Pipeline.PersistTimeoutDuration(); d != 10*time.Second {
		t.Errorf("persist timeout: got %v", d)
	}
	if d := cfg.Classifier.FetchTimeoutDuration(); d != 15*time.Second {
		t.Errorf("fetch timeout: got %v", d)
	}
	if cfg.Pipeline.DetailRoute != "/dashboard/analysis/{id}" {
		t.Errorf("detail route: got %s", cfg.Pipeline.DetailRoute)
	}
	if cfg.Pipeline.MaxImagePixels != 40_000_000 {
		t.Errorf("max image pixels: got %d", cfg.Pipeline.MaxImagePixels)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvVerdantEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if d := cfg.Pipeline.GenerateTimeoutDuration(); d != 45*time.Second {
		t.Errorf("generate timeout: got %v, want 45s (from overlay)", d)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvVerdantVersion, "2.0.0")
	t.Setenv(config.EnvServerPort, "3000")
	t.Setenv("VERDANT_PIPELINE_PERSIST_TIMEOUT", "3s")
	t.Setenv("VERDANT_GEMINI_VISION_MODEL", "gemini-vision")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if d := cfg.Pipeline.PersistTimeoutDuration(); d != 3*time.Second {
		t.Errorf("persist timeout: got %v, want 3s", d)
	}
	if cfg.Agent.VisionModel != "gemini-vision" {
		t.Errorf("vision model: got %s", cfg.Agent.VisionModel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeConfig(t, dir, config.DotEnvFile, strings.Join([]string{
		"VERDANT_DB_URL=postgres://verdant:verdant@db:5432/verdant",
		"VERDANT_STORAGE_CONNECTION_STRING=UseDevelopmentStorage=true",
		"VERDANT_GEMINI_API_KEY=from-dotenv",
	}, "\n"))

	for _, k := range []string{"VERDANT_DB_URL", "VERDANT_STORAGE_CONNECTION_STRING", "VERDANT_GEMINI_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Agent.APIKey != "from-dotenv" {
		t.Errorf("api key: got %q, want from-dotenv", cfg.Agent.APIKey)
	}
	if cfg.Database.Dsn() != "postgres://verdant:verdant@db:5432/verdant" {
		t.Errorf("dsn: got %q", cfg.Database.Dsn())
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("VERDANT_DB_NAME", "testdb")
	t.Setenv("VERDANT_DB_USER", "testuser")
	t.Setenv("VERDANT_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("VERDANT_GEMINI_API_KEY", "key")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if !strings.Contains(cfg.Classifier.ModelURL, "teachablemachine") {
		t.Errorf("model url default: got %s", cfg.Classifier.ModelURL)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, `server = {`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	cfg := loadBase(t)
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv(config.EnvVerdantEnv, "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestServerAddr(t *testing.T) {
	cfg := loadBase(t)
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 20MB", "20MB", 20 * 1024 * 1024},
		{"valid 5MB", "5MB", 5 * 1024 * 1024},
		{"invalid falls back to 20MB", "bad", 20 * 1024 * 1024},
		{"empty falls back to 20MB", "", 20 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid port",
			env:     map[string]string{config.EnvServerPort: "99999"},
			wantErr: "invalid port",
		},
		{
			name:    "missing api key",
			env:     map[string]string{"VERDANT_GEMINI_API_KEY": ""},
			wantErr: "agent",
		},
		{
			name:    "detail route without id",
			env:     map[string]string{"VERDANT_PIPELINE_DETAIL_ROUTE": "/dashboard/analysis"},
			wantErr: "detail_route",
		},
		{
			name:    "negative pixel budget",
			env:     map[string]string{"VERDANT_PIPELINE_MAX_IMAGE_PIXELS": "-1"},
			wantErr: "max_image_pixels",
		},
		{
			name:    "relative model url",
			env:     map[string]string{"VERDANT_CLASSIFIER_MODEL_URL": "model.json"},
			wantErr: "model_url",
		},
		{
			name:    "auth without issuer",
			env:     map[string]string{"VERDANT_AUTH_ENABLED": "true"},
			wantErr: "issuer_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			body := baseConfig
			if tt.name == "missing api key" {
				body = strings.Replace(body, `api_key = "test-key"`, "", 1)
			}
			writeConfig(t, dir, config.BaseConfigFile, body)
			chdir(t, dir)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
