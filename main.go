// The main package for the harvester executable.
package main

import (
	"github.com/pcrawley/contact-harvester/cmd"
)

func main() {
	cmd.Execute()
}
