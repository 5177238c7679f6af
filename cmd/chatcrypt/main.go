package main

import (
	"os"

	"chatcrypt/cmd/chatcrypt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
