package main

import "img2ascii/internal/cli"

func main() {
	cli.Execute()
}
