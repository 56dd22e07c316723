package main

import (
	"os"

	"github.com/arthur-debert/gdsmerge/cmd/gdsmerge"
)

func main() {
	os.Exit(gdsmerge.Execute())
}
