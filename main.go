package main

import "github.com/gearstra/vtt-potion-toxicity-5e/cmd"

func main() {
	cmd.Execute()
}
