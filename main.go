package main

import "github.com/ucs-toolbox/podcfg/cmd"

func main() {
	cmd.Execute()
}
