package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"job-pipeline-go/cmd/scraper-cli/commands"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	commands.ExecuteContext(context.Background())
}
