package migrate

import (
	"testing"

	"github.com/codeGROOVE-dev/minik/internal/db"
)

func TestMigrate(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var version int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version < 1 {
		t.Fatalf("version not advanced: %d", version)
	}
	for _, table := range []string{"settings", "board_prefs", "hidden_columns", "events"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// A second run sees nothing pending and leaves the version alone.
	if err := Migrate(conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var again int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&again); err != nil {
		t.Fatalf("reread version: %v", err)
	}
	if again != version {
		t.Fatalf("version changed on rerun: %d -> %d", version, again)
	}
}

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].version <= migrations[i-1].version {
			t.Fatalf("not strictly ordered: %s after %s", migrations[i].name, migrations[i-1].name)
		}
	}
}
