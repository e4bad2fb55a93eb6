package main

import (
	"context"
	"log"
	"os"

	"backend/cmd"
)

// make version a variable so the build system can inject it
var version = "unknown"

func main() {
	runCmd := cmd.ServerCli()

	err := runCmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
