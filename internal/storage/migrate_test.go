package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestRunMigrationsSuccess(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	if err := RunMigrations(context.Background(), "postgres://localhost:5432/fieldlog"); err != nil {
		t.Fatalf("RunMigrations returned error: %v", err)
	}
}

func TestRunMigrationsError(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	if err := RunMigrations(context.Background(), "postgres://localhost:5432/fieldlog"); err == nil {
		t.Fatalf("expected migration failure to surface")
	}
}
