package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Signin(ctx context.Context) error
	Projects(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Download(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Process(ctx context.Context, args []string) error
	Ask(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit". Command
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("potato %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: projects, upload <path> [project_id], (l)ist, download <file_id>, delete <file_id>, process <file_id>, ask <processing_id>, history <processing_id>, exit")
			} else {
				printlnFn("Available commands: signup, signin, exit")
			}
		case "signup":
			err = a.Signup(ctx)
		case "signin", "login":
			err = a.Signin(ctx)
		case "projects":
			err = a.Projects(ctx)
		case "upload":
			err = a.Upload(ctx, args)
		case "l", "list":
			err = a.List(ctx)
		case "download":
			err = a.Download(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)
		case "process":
			err = a.Process(ctx, args)
		case "ask":
			err = a.Ask(ctx, args)
		case "history":
			err = a.History(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
