package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/concessions/internal/storage/postgres"
)

type fakeMigrator struct {
	applied  int
	upSteps  int
	down     int
	upErr    error
	statuses []postgres.MigrationInfo
}

func (f *fakeMigrator) MigrateUp(_ context.Context, steps int) error {
	if f.upErr != nil {
		return f.upErr
	}
	f.upSteps = steps
	f.applied = len(f.statuses)
	return nil
}

func (f *fakeMigrator) MigrateDown(_ context.Context, steps int) error {
	f.down = steps
	f.applied -= steps
	return nil
}

func (f *fakeMigrator) MigrationStatus(context.Context) (int64, int, error) {
	if f.applied == 0 {
		return 0, 0, nil
	}
	return f.statuses[f.applied-1].Version, f.applied, nil
}

func (f *fakeMigrator) ListMigrations(context.Context) ([]postgres.MigrationInfo, error) {
	return f.statuses, nil
}

func newFakeMigrator() *fakeMigrator {
	return &fakeMigrator{statuses: []postgres.MigrationInfo{
		{Version: 1, Name: "init", Applied: true},
		{Version: 2, Name: "menu_items", Applied: false},
	}}
}

func TestRun_Directions(t *testing.T) {
	ctx := context.Background()
	m := newFakeMigrator()

	var out bytes.Buffer
	if err := run(ctx, m, "up", 0, &out); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if got := out.String(); got != "migrate up ok: version=2 applied=2\n" {
		t.Fatalf("unexpected up output: %q", got)
	}

	out.Reset()
	if err := run(ctx, m, " DOWN ", 0, &out); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if m.down != 1 {
		t.Fatalf("down without steps must roll back one migration, got %d", m.down)
	}
	if got := out.String(); got != "migrate down ok: version=1 applied=1\n" {
		t.Fatalf("unexpected down output: %q", got)
	}

	out.Reset()
	if err := run(ctx, m, "list", 0, &out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "VERSION") || !strings.Contains(lines[2], "menu_items") {
		t.Fatalf("unexpected list output:\n%s", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	m := newFakeMigrator()
	m.upErr = errors.New("syntax error")
	if err := run(ctx, m, "up", 0, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "migrate up failed") {
		t.Fatalf("expected up error, got %v", err)
	}

	if err := run(ctx, newFakeMigrator(), "sideways", 0, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "unsupported direction") {
		t.Fatalf("expected unsupported direction error, got %v", err)
	}
}

func withMigrateCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"migrate"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestMain_PostgresRoundTrip(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CONCESSIONS_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	store, err := postgres.Open(ctx, dsn)
	cancel()
	if err != nil {
		t.Skipf("postgres is not reachable: %v", err)
	}
	_ = store.Close()

	for _, args := range [][]string{
		{"-direction=status", "-dsn=" + dsn},
		{"-direction=up", "-dsn=" + dsn},
		{"-direction=list", "-dsn=" + dsn},
	} {
		withMigrateCLIArgs(t, args, main)
	}
}

func TestMainMissingDSNExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_EXIT") == "1" {
		withMigrateCLIArgs(t, []string{"-direction=status", "-dsn="}, func() {
			_ = os.Unsetenv(envPostgresDSN)
			main()
		})
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainMissingDSNExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_EXIT=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}

func TestFailExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_FAIL_EXIT") == "1" {
		fail("forced failure %d", 42)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_FAIL_EXIT=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}
