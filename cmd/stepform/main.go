// Command stepform drives a YAML-defined wizard on a terminal. Progress is
// persisted in the selected store, so an interrupted run resumes where it
// stopped.
//
//	stepform run signup.yaml --store sqlite --dsn signup.db
//	stepform show signup --store sqlite --dsn signup.db
//	stepform clear signup --store sqlite --dsn signup.db
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMsg("%v", err))
		os.Exit(1)
	}
}
