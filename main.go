package main

import "github.com/tanq16/baku/cmd"

func main() {
	cmd.Execute()
}
