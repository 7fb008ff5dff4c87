package main

import (
	"fmt"
	"os"

	"github.com/example/homelabctl/internal/homelab"
	"github.com/example/homelabctl/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		_ = homelab.Run(nil)
		return
	}

	var err error
	switch os.Args[1] {
	case "setup":
		err = tui.StartWizard()
	case "dash":
		err = tui.StartDashboard()
	case "services":
		err = tui.StartServiceManager()
	case "config":
		err = tui.StartConfigEditor()
	default:
		err = homelab.Run(os.Args[1:])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
