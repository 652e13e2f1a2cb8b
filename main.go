// main package for ratchet command-line tool
// Package main is the entry point for the Ratchet CLI.
package main

import "ratchet.dev/pkg/ratchet/cmd"

func main() {
	cmd.Execute()
}
