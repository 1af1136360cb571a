// Command stepflow validates and runs pipelines defined in YAML.
//
//	stepflow validate pipeline.yaml
//	stepflow run -f pipeline.yaml --input '{"id": 7}' --db sqlite:orders.db
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
