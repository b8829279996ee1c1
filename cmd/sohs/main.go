// sohs is the ServerOrganizer headless server.
package main

import (
	"os"

	"github.com/lionkor/ServerOrganizer/internal/servercmd"
)

func main() {
	os.Exit(servercmd.Execute())
}
