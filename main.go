package main

import (
	"os"

	"github.com/openops/cost-optimization-server/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
