// Command pantry tracks household supplies from the command line.
package main

import "github.com/mesh-intelligence/pantry/internal/cli"

func main() {
	cli.Execute()
}
