package dissect

import "github.com/sirupsen/logrus"

var log = logrus.WithField("component", "dissect")
