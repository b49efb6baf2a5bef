package main

import (
	"fmt"
	"os"

	"github.com/smartcontractkit/sovbridge/cmd/sovbridge"
)

func main() {
	rootCmd := sovbridge.BuildSovbridgeCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
