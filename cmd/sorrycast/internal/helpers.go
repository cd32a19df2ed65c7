package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"sorrycast/pkg/auth"
	"sorrycast/pkg/config"
	"sorrycast/pkg/gateway"
	"sorrycast/pkg/logger"
)

const Logo = "🙇"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sorrycast", "config.json")
}

func GetCredentialPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sorrycast", "credentials.json")
}

func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(GetConfigPath())
	if err != nil {
		return nil, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

// NewGateway builds the backend client. The token source prefers the
// configured token and falls back to the stored credential, re-read per
// request so an external login is picked up without restarting.
func NewGateway(cfg *config.Config) *gateway.Client {
	credPath := GetCredentialPath()
	tokenSource := func() string {
		if cfg.API.Token != "" {
			return cfg.API.Token
		}
		cred, err := auth.LoadCredential(credPath)
		if err != nil || cred == nil {
			return ""
		}
		return cred.AccessToken
	}

	return gateway.New(
		cfg.API.BaseURL,
		gateway.WithTimeout(cfg.APITimeout()),
		gateway.WithTokenSource(tokenSource),
	)
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}
