package main

import (
	"os"

	"github.com/Herculano1234/MuseuCom/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
