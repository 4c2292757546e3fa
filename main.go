package main

import "github.com/demotape/demotape/internal/cli"

func main() {
	cli.Execute()
}
