package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"PaperScanner/internal/cli"
)

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paperscanner:", err)
		os.Exit(1)
	}
}
