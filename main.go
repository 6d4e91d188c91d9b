package main

import "github.com/autotraits-be/cli"

func main() {
	cli.Execute()
}
