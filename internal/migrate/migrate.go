// Package migrate applies the embedded schema migrations at startup.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/pontofacil/migrations"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

// Up brings the schema to the latest version and returns that version.
func Up(ctx context.Context, dsn string, log *zap.Logger) (int64, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("migrate: open: %w", err)
	}
	defer db.Close()

	goose.SetLogger(gooseLogger{log: log.Named("goose").Sugar()})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return 0, fmt.Errorf("migrate: up: %w", err)
	}

	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("migrate: version: %w", err)
	}
	return v, nil
}
