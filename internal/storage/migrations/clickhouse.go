package migrations

import (
	"context"
	"fmt"
	"strings"

	chstore "trade-grid-lab/internal/storage/clickhouse"
	"trade-grid-lab/internal/storage/migrations/sqlfiles"
)

// RunClickhouseMigrations creates the target database if needed and applies
// the analysis_results schema. Returns a connection to the target database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := chstore.DatabaseName(dsn)
	if err != nil {
		return nil, err
	}

	if err := ensureDatabase(ctx, dsn, dbName); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	if err := applyClickhouse(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ensureDatabase(ctx context.Context, dsn, dbName string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if strings.ContainsAny(dbName, "`;") {
		return fmt.Errorf("invalid clickhouse database name %q", dbName)
	}
	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); err != nil {
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

// applyClickhouse runs each embedded statement on conn.
// The native protocol executes one statement per call.
func applyClickhouse(ctx context.Context, conn *chstore.Conn) error {
	files, err := load(sqlfiles.ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			return fmt.Errorf("split migration %s: %w", m.name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return nil
}

// splitStatements cuts input at semicolons outside single-quoted literals.
// Whole-line -- comments are dropped; '' is an escaped quote.
func splitStatements(input string) ([]string, error) {
	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(input, "\n") {
		if !inString && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'' && inString && i+1 < len(line) && line[i+1] == '\'':
				cur.WriteString("''")
				i++
				continue
			case ch == '\'':
				inString = !inString
			case ch == ';' && !inString:
				flush()
				continue
			}
			cur.WriteByte(ch)
		}
		cur.WriteByte('\n')
	}

	if inString {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()
	return stmts, nil
}
