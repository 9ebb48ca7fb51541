package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestUnmarshal_S3AndCleanup(t *testing.T) {
	v := viper.New()
	v.Set("s3.endpoint", "http://minio:9000")
	v.Set("s3.bucket", "deployments")
	v.Set("s3.prefix", "sites/www")
	v.Set("cleanup.object_name", "release.json")
	v.Set("cleanup.keep_count", 3)
	cfg, err := Unmarshal(v)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.S3 == nil {
		t.Fatal("S3 should be set")
	}
	if cfg.S3.Endpoint != "http://minio:9000" {
		t.Errorf("s3.endpoint = %q", cfg.S3.Endpoint)
	}
	if cfg.S3.Bucket != "deployments" {
		t.Errorf("s3.bucket = %q", cfg.S3.Bucket)
	}
	if cfg.S3.Prefix != "sites/www" {
		t.Errorf("s3.prefix = %q", cfg.S3.Prefix)
	}
	if cfg.Cleanup == nil {
		t.Fatal("Cleanup should be set")
	}
	if cfg.Cleanup.ObjectName != "release.json" {
		t.Errorf("cleanup.object_name = %q", cfg.Cleanup.ObjectName)
	}
	if cfg.Cleanup.KeepCount != 3 {
		t.Errorf("cleanup.keep_count = %d", cfg.Cleanup.KeepCount)
	}
}

func TestUnmarshal_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("s3.bucket", "deployments")
	cfg, err := Unmarshal(v)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.S3 == nil || cfg.S3.Region != DefaultRegion {
		t.Errorf("s3.region should default to %s", DefaultRegion)
	}
	if cfg.Cleanup == nil {
		t.Fatal("Cleanup should be populated from defaults")
	}
	if cfg.Cleanup.ObjectName != DefaultObjectName {
		t.Errorf("cleanup.object_name = %q, want %q", cfg.Cleanup.ObjectName, DefaultObjectName)
	}
	if cfg.Cleanup.KeepCount != DefaultKeepCount {
		t.Errorf("cleanup.keep_count = %d, want %d", cfg.Cleanup.KeepCount, DefaultKeepCount)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := &Config{
		S3: &S3Config{
			Endpoint:  "https://127.0.0.1:9000",
			Region:    "eu-west-1",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "deployments",
			Prefix:    "sites/www",
		},
		Cleanup: &CleanupConfig{
			ObjectName: "index.html",
			KeepCount:  5,
		},
		Lock: &LockConfig{
			Enabled:    true,
			Backend:    LockBackendS3,
			TTLMinutes: 30,
		},
		Notifications: &NotificationsConfig{
			Discord: &DiscordConfig{Enabled: true, WebhookURL: "https://discord.test/webhook"},
		},
	}
	if err := Write(cfg, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("config file is empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	loaded, err := Unmarshal(v)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if loaded.S3 == nil || loaded.S3.AccessKey != "key" || loaded.S3.SecretKey != "secret" {
		t.Errorf("s3 credentials did not survive the round trip: %+v", loaded.S3)
	}
	if loaded.S3.Bucket != cfg.S3.Bucket {
		t.Errorf("s3.bucket = %q, want %q", loaded.S3.Bucket, cfg.S3.Bucket)
	}
	if loaded.Cleanup == nil || loaded.Cleanup.KeepCount != 5 {
		t.Errorf("cleanup = %+v, want keep_count 5", loaded.Cleanup)
	}
	if loaded.Lock == nil || loaded.Lock.Backend != LockBackendS3 || loaded.Lock.TTLMinutes != 30 {
		t.Errorf("lock = %+v", loaded.Lock)
	}
	if loaded.Notifications == nil || loaded.Notifications.Discord == nil ||
		loaded.Notifications.Discord.WebhookURL != "https://discord.test/webhook" {
		t.Errorf("notifications = %+v", loaded.Notifications)
	}
}

func TestNotificationsEnabled(t *testing.T) {
	if NotificationsEnabled(nil) {
		t.Error("nil notifications should be disabled")
	}
	if !NotificationsEnabled(&NotificationsConfig{}) {
		t.Error("notifications without a global switch should be enabled")
	}
	off := false
	if NotificationsEnabled(&NotificationsConfig{Enabled: &off}) {
		t.Error("explicitly disabled notifications should be off")
	}
	on := true
	if !NotificationsEnabled(&NotificationsConfig{Enabled: &on}) {
		t.Error("explicitly enabled notifications should be on")
	}
}

func TestS3PathStyle(t *testing.T) {
	if S3PathStyle(nil) {
		t.Error("nil config should not use path style")
	}
	if S3PathStyle(&S3Config{}) {
		t.Error("no endpoint should not use path style")
	}
	if !S3PathStyle(&S3Config{Endpoint: "http://minio:9000"}) {
		t.Error("custom endpoint should default to path style")
	}
	off := false
	if S3PathStyle(&S3Config{Endpoint: "http://minio:9000", PathStyle: &off}) {
		t.Error("explicit path_style=false should win over the endpoint default")
	}
	on := true
	if !S3PathStyle(&S3Config{PathStyle: &on}) {
		t.Error("explicit path_style=true should win")
	}
}
