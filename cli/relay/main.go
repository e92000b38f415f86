package main

import (
	"context"
	"os"

	relaycmder "github.com/papercomputeco/relay/cmd/relay"
)

func main() {
	cmd := relaycmder.NewRelayCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
