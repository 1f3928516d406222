package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Model   string        `envconfig:"MODEL" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Workers int           `envconfig:"WORKERS" default:"2"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_MODEL=gpt-test\nCFGTEST_WORKERS=4\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		SetEnvFile("")
		os.Unsetenv("CFGTEST_MODEL")
		os.Unsetenv("CFGTEST_WORKERS")
	})

	SetEnvFile(path)
	conf, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Model != "gpt-test" {
		t.Fatalf("Model = %q, want gpt-test", conf.Model)
	}
	if conf.Workers != 4 {
		t.Fatalf("Workers = %d, want 4", conf.Workers)
	}
	if conf.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %v, want default 30s", conf.Timeout)
	}
}

func TestNewEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGWIN_MODEL=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGWIN_MODEL", "from-env")
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(path)
	conf, err := New[testConfig]("CFGWIN")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Model != "from-env" {
		t.Fatalf("Model = %q, want from-env", conf.Model)
	}
}

func TestNewMissingRequired(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile("")

	if _, err := New[testConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestNewMissingExplicitFile(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile(filepath.Join(t.TempDir(), "absent.env"))

	if _, err := New[testConfig]("CFGABSENT"); err == nil {
		t.Fatal("expected error for a missing explicit env file")
	}
}

func TestMustNewPanicsOnMissingRequired(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustNew should panic when a required value is missing")
		}
	}()
	MustNew[testConfig]("CFGMUST")
}
