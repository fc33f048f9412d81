package main

import (
	"os"

	"github.com/tanpawarit/Inmobilia-Lead-Capture/cmd"
	_ "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
