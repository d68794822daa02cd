package main

import "github.com/alexnederlof/gcal-focus-time-metrics/cmd/focustime/cmd"

func main() {
	cmd.Execute()
}
