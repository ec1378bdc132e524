package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: 9090

database:
  host: db.internal
  port: 5433
  user: chat
  password: secret
  dbname: chatdb
  sslmode: require

aws:
  region: eu-west-1
  s3_bucket: chat-images

apns:
  key_file: /etc/apns/key.p8
  key_id: ABC123
  team_id: TEAM42
  topic: com.example.chat
  production: true

jwt:
  secret: super-secret

log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Database.DBName != "chatdb" || cfg.Database.SSLMode != "require" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.AWS.Region != "eu-west-1" || cfg.AWS.S3Bucket != "chat-images" {
		t.Errorf("AWS = %+v", cfg.AWS)
	}
	if cfg.APNS.KeyID != "ABC123" || !cfg.APNS.Production {
		t.Errorf("APNS = %+v", cfg.APNS)
	}
	if cfg.JWT.Secret != "super-secret" {
		t.Errorf("JWT = %+v", cfg.JWT)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() succeeded for a missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a mapping")); err == nil {
		t.Error("Load() succeeded for invalid YAML")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "chat",
		Password: "secret",
		DBName:   "chatdb",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=chat password=secret dbname=chatdb sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
