// Command contractgen inserts precondition guards into methods annotated
// with //contract:require. Run it directly or from a go:generate line:
//
//	//go:generate contractgen
package main

import (
	"os"

	"github.com/Aman-CERP/gocontract/cmd/contractgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
