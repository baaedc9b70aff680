// Command ringd serves a consistent hashing ring over gRPC and analyzes how
// the virtual node count affects the spread of members across buckets.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
