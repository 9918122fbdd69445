package cli

import (
	"context"
	"fmt"
	"os"
)

// Run выполняет команду и завершает процесс с ненулевым кодом при ошибке
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "register":
		err = c.runRegister(ctx)
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "join":
		err = c.runJoin(ctx, args)
	case "notes":
		err = c.runNotes(ctx, args)
	case "boards":
		err = c.runBoards(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
