package main

import "github.com/jmehdipour/ux-autorater/cmd"

func main() {
	cmd.Execute()
}
