package main

import "agent-wallet/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
