// Package main is the entry point for the afluent CLI.
package main

import "afluent.dev/pkg/afluent/cmd"

func main() {
	cmd.Execute()
}
