package main

import (
	"context"
	"os"

	"gymbooking/internal/adapters/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
