package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName != "" {
		return fmt.Sprintf("(%s)", a.userName)
	}
	return ""
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to authgate CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("ag %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: refresh, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, verify, forgot, reset, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "verify":
			a.VerifyEmail(ctx)
		case "forgot":
			a.ForgotPassword(ctx)
		case "reset":
			a.ResetPassword(ctx)
		case "refresh":
			a.Refresh(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
