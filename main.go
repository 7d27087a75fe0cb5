package main

import "github.com/kozaktomas/skinstric/cmd"

func main() {
	cmd.Execute()
}
