// Command ledgerctl служебные операции владельца реестра.
package main

import "github.com/ignatzorin/taskbounty-backend/internal/cli"

// version задаётся при сборке через -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
