package osmimport

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Threads int
	// Show byte progress bars while scanning.
	Progress bool
	Logger   *logrus.Logger
}

func ConfigDefault() Config {
	return Config{
		Threads:  runtime.GOMAXPROCS(-1),
		Progress: true,
	}
}
