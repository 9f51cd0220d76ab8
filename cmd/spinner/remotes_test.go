package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	in := RemotesConfig{
		Active: "prod",
		Remotes: map[string]Remote{
			"prod":  {URL: "https://spinner.example.com", Token: "tok_abc", Organization: "org-1"},
			"local": {URL: "http://localhost:8080"},
		},
	}
	if err := saveRemotesConfig(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Active != "prod" {
		t.Errorf("Active = %q, want %q", got.Active, "prod")
	}
	prod := got.Remotes["prod"]
	if prod.URL != "https://spinner.example.com" || prod.Token != "tok_abc" || prod.Organization != "org-1" {
		t.Errorf("prod remote = %+v, wrong values", prod)
	}
}

func TestLoadRemotesConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Active != "" || len(cfg.Remotes) != 0 || cfg.Remotes == nil {
		t.Errorf("expected empty non-nil config, got %+v", cfg)
	}
}

func TestSaveRemotesConfig_Permissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := remoteConfigPath()
	check := func(p string, want os.FileMode) {
		t.Helper()
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s permissions = %04o, want %04o", p, got, want)
		}
	}
	check(path, 0o600)
	check(filepath.Dir(path), 0o700)
}

func TestMaskToken(t *testing.T) {
	dots := func(int) string { return "..." }
	stars := func(n int) string { return strings.Repeat("*", n) }
	if got := maskToken("short", 8, dots); got != "short" {
		t.Errorf("short token masked: %q", got)
	}
	if got := maskToken("0123456789ab", 8, dots); got != "01234567..." {
		t.Errorf("dots = %q", got)
	}
	if got := maskToken("0123456789ab", 8, stars); got != "01234567****" {
		t.Errorf("stars = %q", got)
	}
}

func TestRemoteLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, "remote", "add", "prod", "https://spinner.example.com",
		"--token", "supersecrettoken", "--org", "org-9", "--description", "production")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if _, err := runCLI(t, "remote", "add", "local", "http://localhost:8080"); err != nil {
		t.Fatalf("add local: %v", err)
	}
	if _, err := runCLI(t, "remote", "use", "prod"); err != nil {
		t.Fatalf("use: %v", err)
	}

	out, err = runCLI(t, "remote", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "* prod") || !strings.Contains(out, "supersec...") {
		t.Errorf("list output missing active marker or masked token:\n%s", out)
	}
	if strings.Index(out, "local") > strings.Index(out, "prod") {
		t.Errorf("remotes not sorted by name:\n%s", out)
	}

	out, err = runCLI(t, "remote", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"prod (active)", "organization:", "org-9", "supersec********"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "remote", "remove", "prod"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cfg, _ := loadRemotesConfig()
	if cfg.Active != "" {
		t.Errorf("removing the active remote should clear Active, got %q", cfg.Active)
	}
	if _, err := runCLI(t, "remote", "use", "prod"); err == nil {
		t.Error("expected error using removed remote")
	}

	if _, err := runCLI(t, "remote", "show"); err == nil {
		t.Error("expected error showing with no active remote")
	}
}
