package main

import "karaoke-player/cmd"

func main() {
	cmd.Execute()
}
