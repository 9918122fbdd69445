// Package cli реализует команды консольного клиента livedesk.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iudanet/livedesk/internal/client/api"
	"github.com/iudanet/livedesk/internal/client/auth"
	"github.com/iudanet/livedesk/internal/client/iocli"
	"github.com/iudanet/livedesk/internal/client/storage"
)

// Passwords задает источники пароля помимо интерактивного ввода
type Passwords struct {
	FromFile string
	FromArgs string
}

// Config собирает зависимости CLI
type Config struct {
	APIClient   *api.Client
	AuthService auth.Service
	Boards      storage.BoardStorage
	IO          iocli.IO
	Logger      *slog.Logger
	// ServerWSURL - базовый адрес websocket-комнат (ws://host:port)
	ServerWSURL string
	Passwords   Passwords
}

type Cli struct {
	apiClient   *api.Client
	authService auth.Service
	boards      storage.BoardStorage
	io          iocli.IO
	logger      *slog.Logger
	wsURL       string
	passwords   Passwords
}

func New(cfg Config) *Cli {
	return &Cli{
		apiClient:   cfg.APIClient,
		authService: cfg.AuthService,
		boards:      cfg.Boards,
		io:          cfg.IO,
		logger:      cfg.Logger,
		wsURL:       cfg.ServerWSURL,
		passwords:   cfg.Passwords,
	}
}

// getPassword возвращает пароль из первого непустого источника:
// 1. Переменная окружения LIVEDESK_PASSWORD
// 2. Файл, указанный через --password-file
// 3. Параметр --password
// 4. Интерактивный ввод
func (c *Cli) getPassword(prompt string) (string, error) {
	if envPassword := os.Getenv("LIVEDESK_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

func PrintUsage() {
	fmt.Println("livedesk client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  livedesk [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version              Show version information")
	fmt.Println("  --server URL           Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH              Path to local database (default: livedesk-client.db)")
	fmt.Println("  --password PASSWORD    Password (not recommended, use env var or file)")
	fmt.Println("  --password-file PATH   Path to file containing password")
	fmt.Println()
	fmt.Println("Password Priority (highest to lowest):")
	fmt.Println("  1. LIVEDESK_PASSWORD environment variable")
	fmt.Println("  2. --password-file (file path)")
	fmt.Println("  3. --password (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register                Register new user")
	fmt.Println("  login                   Login to server")
	fmt.Println("  logout                  Logout from server")
	fmt.Println("  status                  Show authentication and subscription status")
	fmt.Println("  join <room>             Join a whiteboard room (Ctrl+C to leave)")
	fmt.Println("  notes <room> <topic>    Generate AI sticky notes into a room")
	fmt.Println("  boards                  List locally cached boards")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  livedesk register")
	fmt.Println("  livedesk login")
	fmt.Println("  livedesk join retro-2026")
	fmt.Println("  livedesk notes retro-2026 'sprint retrospective ideas'")
	fmt.Println()
	fmt.Println("  # Using environment variable (recommended)")
	fmt.Println("  export LIVEDESK_PASSWORD='mySecretPassword123'")
	fmt.Println("  livedesk login")
	fmt.Println()
	fmt.Println("  # Using password file (for automation)")
	fmt.Println("  echo 'mySecretPassword123' > ~/.livedesk-password")
	fmt.Println("  chmod 600 ~/.livedesk-password")
	fmt.Println("  livedesk --password-file ~/.livedesk-password login")
	fmt.Println()
	fmt.Println("  livedesk --server https://desk.example.com join retro-2026")
}
