package main

import (
	"os"

	"github.com/KimNorgaard/go-bulba/cmd/bulba/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
