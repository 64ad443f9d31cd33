package main

import "github.com/mindrender/mindrender/internal/cli"

func main() {
	cli.Execute()
}
