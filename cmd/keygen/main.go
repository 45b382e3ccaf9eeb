package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
)

func main() {
	config.LoadEnvFiles()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	userID := os.Args[1]
	a := auth.New(os.Getenv("JWT_SECRET"), os.Getenv("API_MASTER_SECRET"))

	apiKey, err := a.GenerateHMACKey(userID)
	if err != nil {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	fmt.Printf("Generated Key for %s:\n%s\n", userID, apiKey)
}
