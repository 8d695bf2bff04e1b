package main

import "github.com/ardanlabs/feechain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
