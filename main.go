package main

import (
	"os"

	"bookingcrm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
