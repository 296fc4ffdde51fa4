package main

import (
	"trivia-rag/internal/cli"
)

func main() {
	cli.Execute()
}
