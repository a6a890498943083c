package main

import "amciuday/internal/cli"

func main() {
	cli.Execute()
}
