package main

import (
	"os"

	"VelSweeper/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
