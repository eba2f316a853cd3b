package main

import "github.com/saxenaaman628/redis-joke-list/cmd"

func main() {
	cmd.Execute()
}
