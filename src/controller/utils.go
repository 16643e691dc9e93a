package controller

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"strategydesk/src/model"
	"strategydesk/src/repository"
)

const serviceName = "strategydesk"

// Capture records an unexpected error in the exceptions table so failures
// survive log rotation. Persistence errors are swallowed; auditing must never
// take down the request that triggered it.
func Capture(module, method string, err error, fields map[string]interface{}) {
	if err == nil {
		return
	}

	logger.WithFields(fields).WithError(err).
		Errorf("Captured exception in %s.%s", module, method)

	contextJSON := ""
	if len(fields) > 0 {
		if b, jsonErr := json.Marshal(fields); jsonErr == nil {
			contextJSON = string(b)
		}
	}

	exc := &model.Exception{
		Service: serviceName,
		Module:  module,
		Method:  method,
		Message: err.Error(),
		Stack:   string(debug.Stack()),
		Level:   "error",
		Context: contextJSON,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if dbErr := repository.NewExceptionRepository().Create(ctx, exc); dbErr != nil {
		logger.WithError(dbErr).Error("Failed to persist exception")
	}
}
