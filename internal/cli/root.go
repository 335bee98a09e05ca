package cli

import (
	"context"
	"os"
)

// Execute runs the portlayout CLI and returns an error if any command
// fails. Logging goes to stderr at info level, or debug with --verbose.
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	return New(os.Stderr, LogInfo).RootCommand().ExecuteContext(ctx)
}
