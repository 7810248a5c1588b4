package main

import "github.com/mvp-joe/flowexport/internal/cli"

func main() {
	cli.Execute()
}
