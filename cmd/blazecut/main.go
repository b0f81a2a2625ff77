package main

import "github.com/blazecut/blazecut/internal/cli"

func main() {
	cli.Main()
}
