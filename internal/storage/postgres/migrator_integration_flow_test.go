package postgres

import (
	"context"
	"testing"
	"time"
)

func tableExists(ctx context.Context, t *testing.T, store *Store, table string) bool {
	t.Helper()
	var exists bool
	if err := store.DB().QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", table, err)
	}
	return exists
}

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	steps := []struct {
		name        string
		apply       func() error
		wantVersion int64
		wantTables  map[string]bool
	}{
		{
			name:        "reset",
			apply:       func() error { return store.MigrateDown(ctx, 100) },
			wantVersion: 0,
			wantTables:  map[string]bool{"menu_items": false, "outbox_messages": false, "idempotency_keys": false},
		},
		{
			name:        "up all",
			apply:       func() error { return store.MigrateUp(ctx, 0) },
			wantVersion: 3,
			wantTables:  map[string]bool{"menu_items": true, "outbox_messages": true, "idempotency_keys": true},
		},
		{
			name:        "up again is no-op",
			apply:       func() error { return store.MigrateUp(ctx, 0) },
			wantVersion: 3,
		},
		{
			name:        "down two steps keeps the menu",
			apply:       func() error { return store.MigrateDown(ctx, 2) },
			wantVersion: 1,
			wantTables:  map[string]bool{"menu_items": true, "outbox_messages": false, "idempotency_keys": false},
		},
		{
			name:        "down default step",
			apply:       func() error { return store.MigrateDown(ctx, 0) },
			wantVersion: 0,
			wantTables:  map[string]bool{"menu_items": false},
		},
		{
			name:        "down on empty schema",
			apply:       func() error { return store.MigrateDown(ctx, 1) },
			wantVersion: 0,
		},
	}

	for _, step := range steps {
		if err := step.apply(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			t.Fatalf("%s: migration status: %v", step.name, err)
		}
		if version != step.wantVersion || int64(count) != step.wantVersion {
			t.Fatalf("%s: version=%d count=%d, want %d", step.name, version, count, step.wantVersion)
		}
		for table, want := range step.wantTables {
			if got := tableExists(ctx, t, store, table); got != want {
				t.Fatalf("%s: table %s exists=%v, want %v", step.name, table, got, want)
			}
		}

		if step.name != "up all" {
			continue
		}
		var seeded int
		if err := store.DB().QueryRowContext(ctx, `SELECT count(*) FROM menu_items WHERE active`).Scan(&seeded); err != nil {
			t.Fatalf("count seeded menu: %v", err)
		}
		if seeded != 8 {
			t.Fatalf("seeded menu items=%d, want 8", seeded)
		}
		infos, err := store.ListMigrations(ctx)
		if err != nil {
			t.Fatalf("list migrations: %v", err)
		}
		for _, info := range infos {
			if !info.Applied {
				t.Fatalf("migration %d_%s expected to be applied", info.Version, info.Name)
			}
		}
	}
}

func TestMigrator_GuardsAndUnsupportedDirection(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("expected error for nil store MigrateUp")
	}
	if err := nilStore.MigrateDown(ctx, 1); err == nil {
		t.Fatal("expected error for nil store MigrateDown")
	}
	if _, _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("expected error for nil store MigrationStatus")
	}

	store := openRawPostgresStoreForIntegrationTest(t)
	if err := store.migrate(ctx, migrationDirection("invalid"), 0); err == nil {
		t.Fatal("expected unsupported direction error")
	}
}
