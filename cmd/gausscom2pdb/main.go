package main

import (
	"fmt"
	"os"

	"bwestbro.com/gausswrangler/internal/gausscom2pdb"
	"bwestbro.com/gausswrangler/internal/inicfg"
	"bwestbro.com/gausswrangler/internal/status"
)

func main() {
	if err := inicfg.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(status.Code(err))
	}
	os.Exit(gausscom2pdb.Main(os.Args[1:], os.Stdout, os.Stderr))
}
