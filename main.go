package main

import "github.com/jigneshk/Ops/cmd"

func main() {
	cmd.Execute()
}
