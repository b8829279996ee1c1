// so is the interactive ServerOrganizer client.
package main

import (
	"os"

	"github.com/lionkor/ServerOrganizer/internal/clientcmd"
)

func main() {
	os.Exit(clientcmd.Execute())
}
