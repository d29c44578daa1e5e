package main

import "FractalDB/cli"

func main() {
	cli.Execute()
}
