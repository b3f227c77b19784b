package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// execIface defines the command surface the REPL drives. The real App
// satisfies it; tests can provide a lightweight stub.
type execIface interface {
	Login(ctx context.Context, args []string) error
	Request(ctx context.Context, args []string) error
	Validate(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Retrieve(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
}

// runREPL reads a line, dispatches on its first token and repeats until
// "exit", EOF or ctx is done:
//
//	login <uid> [password]   open a broker session
//	req <op> [filename]      request L, R, U, D or X
//	val <code>               confirm with the relay code
//	list | l                 list stored files
//	retrieve | r <filename>  download a file
//	upload | u <filename>    upload a file
//	delete | d <filename>    delete a file
//	remove | x               delete every file of the user
//	exit                     leave the program
//
// Handlers print their own outcome; their errors are ignored here.
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
		case "login":
			_ = a.Login(ctx, args)
		case "req":
			_ = a.Request(ctx, args)
		case "val":
			_ = a.Validate(ctx, args)
		case "list", "l":
			_ = a.List(ctx, args)
		case "retrieve", "r":
			_ = a.Retrieve(ctx, args)
		case "upload", "u":
			_ = a.Upload(ctx, args)
		case "delete", "d":
			_ = a.Delete(ctx, args)
		case "remove", "x":
			_ = a.Remove(ctx, args)
		case "exit":
			return
		default:
			printlnFn(fmt.Sprintf("Invalid action %q!", cmd))
		}
	}
}
