package main

import "github.com/mcoot/spinwheel-go/internal/cli"

func main() {
	cli.Execute()
}
