/*
seatctl - command-line front end for the seat allocation engine

PURPOSE:
  Runs the allocation engine and the scenario explorer on election files
  (JSON or YAML, see factory/election.go) without starting the server.

COMMANDS:
  seatctl allocate  -f beirut.yaml
  seatctl scenarios -f beirut.yaml --target c1 [--by-id]
  seatctl sweep     -f beirut.yaml [--limit 8]
  seatctl district  [--district zahle.yaml]

  --district loads a custom seat table; otherwise the file's "district"
  field is looked up (default Beirut I).

EXIT STATUS:
  Non-zero when the file cannot be read or the allocation fails. A failed
  allocation still prints its partial trace.
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
