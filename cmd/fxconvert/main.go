package main

import "fxconvert/internal/cli"

func main() {
	cli.Execute()
}
