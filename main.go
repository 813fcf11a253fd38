package main

import (
	"github.com/shopeetools/revscope/cmd"
)

func main() {
	cmd.Execute()
}
