package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Fatalf("expected paired up/down migrations, got %d up %d down", up, down)
	}

	data, err := fs.ReadFile(migrationsFS, "migrations/1_assessments.up.sql")
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS assessments") {
		t.Fatalf("unexpected migration body")
	}
}

func TestNewPostgresRejectsEmptyDSN(t *testing.T) {
	if _, err := NewPostgres(" "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
