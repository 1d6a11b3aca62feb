// Command goconsole drives a console session from the terminal: sign in and
// out, renew tokens, inspect the stored user and check access requirements.
// It also hosts a development authority for local work.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args)
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "goconsole: %v\n", err)
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		os.Exit(ec.ExitCode())
	}
	os.Exit(1)
}
