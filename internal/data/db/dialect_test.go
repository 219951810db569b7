package db

import (
	"testing"

	"gorm.io/driver/sqlite"
)

func TestConfigDSNs(t *testing.T) {
	c := Config{PostgresHost: "h", PostgresPort: "5432", PostgresUser: "u", PostgresPassword: "p", PostgresName: "n"}
	if got, want := c.PostgresDSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("PostgresDSN: want=%q got=%q", want, got)
	}
	c.DSN = "postgres://override"
	if got := c.PostgresDSN(); got != "postgres://override" {
		t.Fatalf("DSN override: got=%q", got)
	}
	s := Config{SQLitePath: "/tmp/x.db"}
	if got, want := s.SQLiteDSN(), "file:/tmp/x.db?_foreign_keys=1&_busy_timeout=5000"; got != want {
		t.Fatalf("SQLiteDSN: want=%q got=%q", want, got)
	}
}

func TestAutoMigrateOnSQLite(t *testing.T) {
	conn, err := Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared&_foreign_keys=1"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("dialect: want=sqlite got=%s", DialectName(conn))
	}
	if err := AutoMigrateAll(conn); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"users", "user_token", "projects", "project_members", "edit_history", "details", "research_results", "interview_notes", "documents"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	if !conn.Migrator().HasIndex("edit_history", "idx_edit_history_project_version") {
		t.Fatalf("missing unique (project_id, version) index")
	}
	if DialectName(nil) != "" {
		t.Fatalf("nil conn should have empty dialect")
	}
}
