package main

import "testing"

func TestWithMigrationsTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@h:5432/db?sslmode=disable", "postgres://u:p@h:5432/db?sslmode=disable&x-migrations-table=schema_seeds"},
		{"postgres://u:p@h:5432/db", "postgres://u:p@h:5432/db?x-migrations-table=schema_seeds"},
	}
	for _, tt := range tests {
		if got := withMigrationsTable(tt.dsn, seedsTable); got != tt.want {
			t.Errorf("withMigrationsTable(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestEffectiveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/directory.yaml")

	if got := effectiveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("flag must win, got %q", got)
	}
	if got := effectiveConfigPath(""); got != "/etc/directory.yaml" {
		t.Errorf("env must be used, got %q", got)
	}
}
