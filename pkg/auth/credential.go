package auth

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Credential is the bearer token the gateway attaches to backend calls.
// It is written by the login flow and read-only everywhere else.
type Credential struct {
	AccessToken string `json:"access_token"`
	AuthMethod  string `json:"auth_method"`
}

// LoginPasteToken prompts for a backend access token pasted on stdin.
func LoginPasteToken(r io.Reader) (*Credential, error) {
	fmt.Println("Paste your sorrycast access token:")
	fmt.Print("> ")

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading token: %w", err)
		}
		return nil, errors.New("no input received")
	}

	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	return &Credential{
		AccessToken: token,
		AuthMethod:  "token",
	}, nil
}

func SaveCredential(path string, cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadCredential returns nil without error when no credential is stored.
func LoadCredential(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parsing credential file: %w", err)
	}
	return &cred, nil
}
