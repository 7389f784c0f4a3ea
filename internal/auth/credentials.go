package auth

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const credentialsFileName = "credentials.yml"

// Credentials is everything secret: the Google Calendar token and the SMTP
// password. It lives in its own 0600 file so config.yml stays shareable.
type Credentials struct {
	GoogleToken  string `yaml:"google_token,omitempty"`
	SMTPPassword string `yaml:"smtp_password,omitempty"`
}

// HasGoogleToken reports whether a calendar token is stored. No token means
// the calendar is disconnected, which is a normal state, not an error.
func (c *Credentials) HasGoogleToken() bool {
	return c != nil && c.GoogleToken != ""
}

func Load() (*Credentials, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(configDir, credentialsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

func (c *Credentials) Save() error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	path := filepath.Join(configDir, credentialsFileName)
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ClearGoogleToken drops the stored calendar token, e.g. after the API
// starts rejecting it.
func (c *Credentials) ClearGoogleToken() error {
	c.GoogleToken = ""
	return c.Save()
}

// PromptGoogleToken walks the user through pasting an access token for the
// Google Calendar API and stores it.
func PromptGoogleToken() (*Credentials, error) {
	fmt.Println()
	fmt.Println("  Connect Google Calendar")
	fmt.Println("  ───────────────────────")
	fmt.Println()
	fmt.Println("  You need an access token with calendar scope.")
	fmt.Println()
	fmt.Println("  1. Go to: https://developers.google.com/oauthplayground")
	fmt.Println("  2. Select the Google Calendar API v3 scope")
	fmt.Println("  3. Authorize and copy the access token")
	fmt.Println()

	fmt.Print("  Access token: ")
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	fmt.Println()

	token := stripSpace(string(tokenBytes))
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}

	creds, err := Load()
	if err != nil {
		return nil, err
	}
	creds.GoogleToken = token
	if err := creds.Save(); err != nil {
		return nil, err
	}
	return creds, nil
}

// PromptSMTPPassword reads the SMTP password for reminder email and stores
// it alongside the calendar token.
func PromptSMTPPassword(username string) (*Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	name := username
	if name == "" {
		fmt.Print("  SMTP username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(line)
	}

	fmt.Printf("  Password for %s: ", name)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	fmt.Println()

	creds, err := Load()
	if err != nil {
		return nil, err
	}
	creds.SMTPPassword = stripSpace(string(passwordBytes))
	if err := creds.Save(); err != nil {
		return nil, err
	}
	return creds, nil
}

// stripSpace removes every whitespace rune, tolerating tokens pasted with
// line breaks.
func stripSpace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func getConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "leadly"), nil
}
