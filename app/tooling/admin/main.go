// This program performs administrative tasks for the blockchain node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/feechain/app/tooling/admin/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return errors.New("usage: admin [bals|blocks|basefee]")
	}

	return processCommands(os.Args)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(args); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(args); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	case "basefee":
		if err := commands.BaseFee(args); err != nil {
			return fmt.Errorf("getting base fee: %w", err)
		}
	default:
		return errors.New("usage: admin [bals|blocks|basefee]")
	}

	return nil
}
