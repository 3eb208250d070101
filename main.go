package main

import "github.com/papapumpkin/critpath/cmd"

func main() {
	cmd.Execute()
}
