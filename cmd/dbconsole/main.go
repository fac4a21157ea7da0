package main

import (
	"os"

	"github.com/dbconsole/dbconsole/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
