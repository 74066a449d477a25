package main

import "github.com/chazu/railsweep/cmd/railsweep/cmd"

func main() {
	cmd.Execute()
}
