package main

import (
	"context"
	"os"

	"github.com/ftl/ais-nmea/cmd"
)

func main() {
	if err := cmd.RootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
