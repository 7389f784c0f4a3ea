package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func setTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadMissingFileIsDisconnected(t *testing.T) {
	setTempHome(t)

	creds, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.HasGoogleToken() {
		t.Fatalf("fresh credentials must not have a token")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	setTempHome(t)

	creds := &Credentials{GoogleToken: "ya29.token", SMTPPassword: "hunter2"}
	if err := creds.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.GoogleToken != "ya29.token" || loaded.SMTPPassword != "hunter2" {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
}

func TestCredentialsFileIsPrivate(t *testing.T) {
	setTempHome(t)

	creds := &Credentials{GoogleToken: "secret"}
	if err := creds.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	home, _ := os.UserHomeDir()
	info, err := os.Stat(filepath.Join(home, ".config", "leadly", credentialsFileName))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("credentials file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestClearGoogleToken(t *testing.T) {
	setTempHome(t)

	creds := &Credentials{GoogleToken: "secret", SMTPPassword: "keep"}
	if err := creds.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := creds.ClearGoogleToken(); err != nil {
		t.Fatalf("ClearGoogleToken: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.HasGoogleToken() {
		t.Fatalf("token not cleared")
	}
	if loaded.SMTPPassword != "keep" {
		t.Fatalf("unrelated secret lost on clear")
	}
}

func TestStripSpace(t *testing.T) {
	if got := stripSpace(" ya29.\nab cd\t"); got != "ya29.abcd" {
		t.Fatalf("stripSpace = %q", got)
	}
}
