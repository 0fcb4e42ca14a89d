package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.WithError(err).Error("framehouse failed")
		os.Exit(1)
	}
}
