// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command tbcounter runs the up/down counter testbench.
//
// Usage:
//
//	tbcounter [--vcd_file|-v path] [--display] [--table file] [--cycles n]
//	          [--device gates|model] [--workers n] [--strict]
//	          [--report file] [--history db] [--config file] [--log-level level]
//	tbcounter history --history db [-n limit]
//
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/db47h/hwtb/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
