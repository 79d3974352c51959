package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Files(ctx context.Context, args []string) error
	Stream(ctx context.Context, args []string) error
	Route(args []string) error
	Whoami() error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, on "exit" or "quit", or when ctx is done.
//
//	Not logged in:
//	  help, login, route <path>, whoami, exit | quit
//
//	Logged in:
//	  help, files <tokenID>, stream <fileID> [tokenID] [save],
//	  route <path>, whoami, login, logout, exit | quit
//
// Handlers report their own errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("rair %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: files, stream, route, whoami, login, logout, exit")
			} else {
				printlnFn("Available commands: login, route, whoami, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "files":
			_ = a.Files(ctx, args)

		case "stream":
			_ = a.Stream(ctx, args)

		case "route":
			_ = a.Route(args)

		case "whoami":
			_ = a.Whoami()

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
