package main

import (
	"fmt"
	"os"

	"github.com/mikejritter/fcrepo-upgrade-utils/cmd/fcrepo-upgrade-utils/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
