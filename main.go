package main

import "github.com/tradepulse/msgbus/cmd"

func main() {
	cmd.Execute()
}
