package cmd

import (
	"go.uber.org/zap"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
)

type Error struct {
	UserMessage string
	LogMessage  string
}

func LogError(err *Error, checkLogMessage string) {
	if err.LogMessage == "" {
		log.AuditInfo(err.UserMessage)
		return
	}

	log.Audit(err.UserMessage)
	log.Audit(checkLogMessage)
	zap.S().Error(err.LogMessage)
}
