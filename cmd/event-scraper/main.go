package main

import "github.com/pfrederiksen/event-scraper/internal/cli"

func main() {
	cli.Execute()
}
