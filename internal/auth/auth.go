// Package auth obtains GitHub credentials by delegating to a locally
// installed, already-authenticated gh CLI. The sync engine itself only
// ever sees the resulting bearer token.
package auth

import (
	"fmt"
	"os/exec"
	"strings"
)

// ghCandidates are checked in order before falling back to $PATH.
var ghCandidates = []string{
	"/opt/homebrew/bin/gh",
	"/usr/local/bin/gh",
	"gh",
}

// FindGH locates the gh binary, preferring the common Homebrew install
// locations over $PATH lookup.
func FindGH() (string, error) {
	for _, candidate := range ghCandidates {
		if err := exec.Command(candidate, "--version").Run(); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("GitHub CLI (gh) not found; install it with 'brew install gh' and authenticate with 'gh auth login'")
}

// Token returns the gh CLI's bearer token. The contract with the sync
// engine is a non-empty token or an explicit error before any network
// call is attempted.
func Token() (string, error) {
	ghPath, err := FindGH()
	if err != nil {
		return "", err
	}
	out, err := exec.Command(ghPath, "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("get GitHub token: %w; ensure 'gh' is authenticated", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("gh returned an empty token; run 'gh auth login'")
	}
	return token, nil
}

// CurrentUser returns the authenticated user's login.
func CurrentUser() (string, error) {
	ghPath, err := FindGH()
	if err != nil {
		return "", err
	}
	out, err := exec.Command(ghPath, "api", "user", "--jq", ".login").Output()
	if err != nil {
		return "", fmt.Errorf("get current user: %w", err)
	}
	login := strings.TrimSpace(string(out))
	if login == "" {
		return "", fmt.Errorf("gh returned an empty login")
	}
	return login, nil
}
