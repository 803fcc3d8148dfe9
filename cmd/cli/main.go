package main

import (
	"github.com/searchparty-game/searchparty/internal/cli"
)

func main() {
	cli.Execute()
}
