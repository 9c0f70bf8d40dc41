package main

import "github.com/andrewpaige1/flashcards-ai/cmd"

func main() {
	cmd.Execute()
}
