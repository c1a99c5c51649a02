package backup

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/n-zngr/recipes-app/internal/database"
)

type fakeS3 struct {
	keys   []string
	bodies [][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *input.Key)
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func testManager(t *testing.T) (*Manager, *fakeS3) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:         S3Config{Bucket: "backups", AccessKey: "ak", SecretKey: "sk"},
		Passphrase: "test-passphrase",
	}, db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fake := &fakeS3{}
	m.client = fake
	return m, fake
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	m := NewManager(Config{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.Enabled() {
		t.Error("manager should be disabled without S3 config")
	}
	if err := m.BackupNow(context.Background()); err == nil {
		t.Error("BackupNow should fail when not configured")
	}
}

func TestManagerDefaultInterval(t *testing.T) {
	m := NewManager(Config{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.cfg.Interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h default", m.cfg.Interval)
	}
}

func TestBackupNowUploadsEncryptedSnapshot(t *testing.T) {
	m, fake := testManager(t)

	if err := m.BackupNow(context.Background()); err != nil {
		t.Fatalf("backup now: %v", err)
	}
	if len(fake.keys) != 1 {
		t.Fatalf("uploads = %d, want 1", len(fake.keys))
	}
	if filepath.Ext(fake.keys[0]) != ".enc" {
		t.Errorf("key = %q, want .enc suffix", fake.keys[0])
	}

	// The uploaded body must decrypt back to a SQLite database
	plain, err := Decrypt(fake.bodies[0], "test-passphrase")
	if err != nil {
		t.Fatalf("decrypt upload: %v", err)
	}
	if len(plain) < 16 || string(plain[:15]) != "SQLite format 3" {
		t.Error("decrypted payload is not a SQLite database")
	}

	if _, err := Decrypt(fake.bodies[0], "wrong"); err == nil {
		t.Error("upload should not decrypt with the wrong passphrase")
	}
}
