// This program provides operator commands for deriving hashes, sealing
// blocks and building demonstration chains.
package main

import "github.com/ardanlabs/powchain/app/tooling/chaincli/cmd"

func main() {
	cmd.Execute()
}
