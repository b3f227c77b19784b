package cli

import (
	"bufio"
	"context"
	"strings"
)

// execIface is the command surface the REPL drives.
type execIface interface {
	Register(ctx context.Context, args []string) error
}

// runREPL reads operator commands until "exit", EOF or ctx is done:
//
//	reg <uid> [password]   register this device for uid
//	exit                   leave, unregistering first
//
// Handlers print their own outcome.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn("> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch cmd, args := parts[0], parts[1:]; cmd {
		case "reg":
			_ = a.Register(ctx, args)
		case "exit":
			return
		default:
			printlnFn("Invalid action!")
		}
	}
}
