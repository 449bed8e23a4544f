package main

import "github.com/cmpt-474-edu-monitor/sdk/cmd"

func main() {
	cmd.Execute()
}
