package main

import (
	"log"

	"github.com/cohortlab/mba-portal/cmd"
	"github.com/cohortlab/mba-portal/config"
)

func main() {
	log.Printf("mba-portal %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
