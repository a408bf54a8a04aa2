package main

import "github.com/avearchive/avocado/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
