package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const testClientJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthConfigFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	if _, err := OAuthConfigFromEnv(); !errors.Is(err, errNoOAuthClient) {
		t.Fatalf("OAuthConfigFromEnv() error = %v, want errNoOAuthClient", err)
	}

	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)
	cfg, err := OAuthConfigFromEnv()
	if err != nil {
		t.Fatalf("OAuthConfigFromEnv() error = %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "https://www.googleapis.com/auth/spreadsheets.readonly" {
		t.Errorf("Scopes = %v, want read-only sheets scope", cfg.Scopes)
	}

	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	file := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(file, []byte(testClientJSON), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", file)
	if _, err := OAuthConfigFromEnv(); err != nil {
		t.Fatalf("OAuthConfigFromEnv() from file error = %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("LoadToken() = %+v, want %+v", got, want)
	}
}

func TestLoadTokenRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadToken(path); err == nil {
		t.Fatal("LoadToken() error = nil, want error for empty token")
	}
	if _, err := LoadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadToken() error = nil, want error for missing file")
	}
}

func TestTokenFile(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", "")
	if got := TokenFile(); got != DefaultTokenFile {
		t.Errorf("TokenFile() = %q, want %q", got, DefaultTokenFile)
	}
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", "/tmp/tok.json")
	if got := TokenFile(); got != "/tmp/tok.json" {
		t.Errorf("TokenFile() = %q", got)
	}
}

func TestNewUsesUserToken(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)
	path := filepath.Join(t.TempDir(), "token.json")
	if err := SaveToken(path, &oauth2.Token{RefreshToken: "refresh"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", path)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Name() != "sheets:sheet" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestNewFailsOnBrokenUserToken(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := New(context.Background(), Config{SpreadsheetID: "sheet"}); err == nil {
		t.Fatal("New() error = nil, want error for missing token file")
	}
}
