// The main package for the metascraper executable.
package main

import (
	"github.com/JakeFAU/site-metascraper/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
