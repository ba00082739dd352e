package common

import (
	"github.com/getsentry/sentry-go"
)

// Send the error to sentry. Does nothing unless sentry has been initialised
func Report(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
