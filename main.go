package main

import cmd "github.com/rtkit/timertop/cmd/timertop"

func main() {
	cmd.Execute()
}
