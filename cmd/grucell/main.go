// Package main provides grucell, a command-line driver for a single GRU step.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

const version = "v0.1.0-dev"

func main() {
	log := newLogger()
	if err := newRootCommand(log).Execute(); err != nil {
		log.WithError(err).Error("grucell failed")
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}
