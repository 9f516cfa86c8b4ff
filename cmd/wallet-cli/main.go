package main

import "icx-wallet/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
