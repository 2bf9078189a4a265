package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := execute(); err != nil {
		logrus.WithError(err).Error("netbackup failed")
		os.Exit(1)
	}
}
