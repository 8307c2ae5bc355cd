// Command recommendation runs the social graph recommendation service.
package main

import (
	"log"

	"github.com/Flyns157/API-recommendation/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
