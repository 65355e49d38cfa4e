package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// installFakeGH places a gh shim on PATH that answers the subcommands
// this package shells out to.
func installFakeGH(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake gh shim is a shell script")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "gh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write shim: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestToken(t *testing.T) {
	installFakeGH(t, `
case "$1" in
--version) echo "gh version 0.0-test" ;;
auth) echo "  ghp_testtoken123  " ;;
esac
`)
	token, err := Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "ghp_testtoken123" {
		t.Fatalf("token must be trimmed, got %q", token)
	}
}

func TestTokenEmpty(t *testing.T) {
	installFakeGH(t, `
case "$1" in
--version) echo "gh version 0.0-test" ;;
auth) echo "" ;;
esac
`)
	if _, err := Token(); err == nil {
		t.Fatal("empty token must be an error")
	}
}

func TestCurrentUser(t *testing.T) {
	installFakeGH(t, `
case "$1" in
--version) echo "gh version 0.0-test" ;;
api) echo "alice" ;;
esac
`)
	login, err := CurrentUser()
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if login != "alice" {
		t.Fatalf("login: %q", login)
	}
}

func TestFindGHMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake gh shim is a shell script")
	}
	for _, p := range []string{"/opt/homebrew/bin/gh", "/usr/local/bin/gh"} {
		if _, err := os.Stat(p); err == nil {
			t.Skipf("gh installed at %s", p)
		}
	}
	t.Setenv("PATH", t.TempDir()) // empty dir: no gh on PATH
	if _, err := FindGH(); err == nil {
		t.Fatal("expected an error when gh is absent")
	}
}
