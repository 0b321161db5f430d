package shared

import (
	"slices"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.SQL == "" || m.Name == "" {
				t.Errorf("migration version %d missing name or SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM callbacks LIMIT 1"); err != nil {
			t.Errorf("callbacks table should exist after migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		version, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("SchemaVersion() error: %v", err)
		}
		if want := migrations[len(migrations)-1].Version; version != want {
			t.Errorf("SchemaVersion() = %d, want %d", version, want)
		}
	})

	t.Run("SchemaVersion before migrating", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		if v, err := SchemaVersion(db); err != nil || v != -1 {
			t.Errorf("SchemaVersion() = %d, %v; want -1, nil", v, err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestStatements(t *testing.T) {
	tt := []struct {
		name   string
		script string
		want   []string
	}{
		{"empty", "", nil},
		{"comments only", "-- nothing\n;\n", nil},
		{"two statements", "CREATE TABLE a (x);\nDROP TABLE b;", []string{"CREATE TABLE a (x)", "DROP TABLE b"}},
		{"trailing comment", "SELECT 1 -- one\n;", []string{"SELECT 1"}},
		{"multi-line", "CREATE TABLE a (\n  x INTEGER\n);", []string{"CREATE TABLE a (\nx INTEGER\n)"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := statements(tc.script); !slices.Equal(got, tc.want) {
				t.Errorf("statements(%q) = %q, want %q", tc.script, got, tc.want)
			}
		})
	}
}
