package main

import "github.com/example/dmv-monitor/cmd"

func main() {
	cmd.Execute()
}
