package main

import "github.com/qobs-build/mkgen/cmd"

func main() {
	cmd.Execute()
}
