package main

import "musicca/cmd"

func main() {
	cmd.Execute()
}
