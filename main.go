package main

import "github.com/KaramelBytes/happipe-cli/cmd"

func main() {
	cmd.Execute()
}
