// Package main is the entry point for the btrank CLI tool, which fits
// Bradley-Terry ratings from CSV match data without the HTTP service.
package main

import "github.com/arenalab/btrank/internal/cli"

func main() {
	cli.Execute()
}
