package main

import "github.com/pfrederiksen/ae-data/internal/cli"

func main() {
	cli.Execute()
}
