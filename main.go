package main

import "amazon-analyzer/commands"

func main() {
	commands.Execute()
}
