package main

import "github.com/i474232898/weather-client/internal/cli"

func main() {
	cli.Execute()
}
