package main

import (
	"github.com/accordlabs/checkin/cmd/checkin"
)

func main() {
	// Execute initializes all commands and starts the CLI
	checkin.Execute()
}
