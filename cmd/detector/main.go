package main

import "github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/cli"

func main() {
	cli.Execute()
}
