package main

import "github.com/keyfort/keyfort/cmd/keyfort/cmd"

func main() {
	cmd.Execute()
}
