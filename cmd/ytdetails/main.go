// Command ytdetails resolves YouTube track details from the command line or
// serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytget/ytdetails/errs"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

// userMessage prefers the message meant for end users over the error chain.
func userMessage(err error) string {
	if errs.IsUserFacing(err) {
		e, _ := errs.As(err)
		return e.Message
	}
	return "Error: " + err.Error()
}
