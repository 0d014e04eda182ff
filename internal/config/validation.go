package config

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

func (ve *ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

func (ve *ValidationErrors) positive(field string, d time.Duration) {
	if d <= 0 {
		ve.Add(field, "must be a positive duration", d)
	}
}

func (ve *ValidationErrors) quantity(field, value string) {
	if value == "" {
		return
	}
	if _, err := resource.ParseQuantity(value); err != nil {
		ve.Add(field, fmt.Sprintf("is not a valid quantity: %v", err), value)
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c ControllerConfig) Validate() error {
	var errs ValidationErrors

	errs.required("namespace", c.Namespace)

	switch c.Applications.Source {
	case SourceConfigMap:
		errs.required("applications.configMapName", c.Applications.ConfigMapName)
		errs.required("applications.configMapKey", c.Applications.ConfigMapKey)
	case SourceFile:
		errs.required("applications.filePath", c.Applications.FilePath)
	default:
		errs.Add("applications.source", "must be one of configmap, file", c.Applications.Source)
	}

	errs.positive("intervals.watchTimeout", c.Intervals.WatchTimeout)
	errs.positive("intervals.watchRetryDelay", c.Intervals.WatchRetryDelay)
	errs.positive("intervals.sweepInterval", c.Intervals.SweepInterval)
	errs.positive("intervals.jobRetention", c.Intervals.JobRetention)
	errs.positive("intervals.monitorInterval", c.Intervals.MonitorInterval)
	errs.positive("intervals.reloadInterval", c.Intervals.ReloadInterval)
	errs.positive("intervals.activityRetryDelay", c.Intervals.ActivityRetryDelay)
	if c.Intervals.WatchTimeout > 0 && c.Intervals.WatchTimeout < time.Second {
		errs.Add("intervals.watchTimeout", "must be at least one second", c.Intervals.WatchTimeout)
	}

	errs.required("scanner.image", c.Scanner.Image)
	errs.required("scanner.commandTemplate", c.Scanner.CommandTemplate)
	errs.required("scanner.credentialsSecret", c.Scanner.CredentialsSecret)
	if c.Scanner.BackoffLimit < 0 {
		errs.Add("scanner.backoffLimit", "must not be negative", c.Scanner.BackoffLimit)
	}
	if c.Scanner.TTLSecondsAfterFinished < 0 {
		errs.Add("scanner.ttlSecondsAfterFinished", "must not be negative", c.Scanner.TTLSecondsAfterFinished)
	}
	errs.quantity("scanner.stagingSizeLimit", c.Scanner.StagingSizeLimit)
	errs.quantity("scanner.resources.requestsCPU", c.Scanner.Resources.RequestsCPU)
	errs.quantity("scanner.resources.requestsMemory", c.Scanner.Resources.RequestsMemory)
	errs.quantity("scanner.resources.limitsCPU", c.Scanner.Resources.LimitsCPU)
	errs.quantity("scanner.resources.limitsMemory", c.Scanner.Resources.LimitsMemory)
	errs.quantity("scanner.resources.limitsEphemeralStorage", c.Scanner.Resources.LimitsEphemeralStorage)

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs.Add("logFormat", "must be text or json", c.LogFormat)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
