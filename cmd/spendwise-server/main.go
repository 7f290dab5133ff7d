package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spendwise/internal/server"
)

func main() {
	if err := server.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
