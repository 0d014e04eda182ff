package scanjob

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Labels, annotations and fixed values stamped on every scan job.
const (
	LabelName              = "app.kubernetes.io/name"
	LabelComponent         = "app.kubernetes.io/component"
	LabelInstance          = "app.kubernetes.io/instance"
	LabelManagedBy         = "app.kubernetes.io/managed-by"
	LabelScanType          = "scan-type"
	LabelTrigger           = "trigger"
	LabelTargetApplication = "target-application"

	AnnotationApplication = "bd-selfscan.io/application"
	AnnotationNamespace   = "bd-selfscan.io/namespace"
	AnnotationTrigger     = "bd-selfscan.io/trigger"
	AnnotationCreatedBy   = "bd-selfscan.io/created-by"
	AnnotationTriggerID   = "bd-selfscan.io/trigger-id"

	AppName           = "bd-selfscan"
	ComponentScanner  = "scanner"
	ManagedBy         = "selfscan"
	CreatedBy         = "bd-selfscan-controller"
	ScanTypeAutomated = "automated"

	VolumeScripts      = "scripts"
	VolumeApplications = "applications-config"
	VolumeStaging      = "temp-storage"

	ContainerInstallTools = "install-tools"
	ContainerScanner      = "scanner"
)

const (
	// JobNamePrefix starts every automatically submitted job name.
	JobNamePrefix = "scan-auto-"

	// TimestampLayout is the second-resolution suffix of job names.
	TimestampLayout = "20060102-150405"

	// maxJobNameLength keeps the name usable as the job-name pod label.
	maxJobNameLength = 63
)

var sanitizer = strings.NewReplacer(" ", "-", "_", "-")

// Sanitize lowercases name and replaces spaces and underscores with hyphens.
func Sanitize(name string) string {
	return sanitizer.Replace(strings.ToLower(name))
}

// TargetApplication is the value of the target-application label.
func TargetApplication(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// JobName returns scan-auto-<sanitized name>-<YYYYMMDD-HHMMSS>. Long
// application names are shortened so the result stays a valid label value.
func JobName(application string, t time.Time) string {
	suffix := "-" + t.Format(TimestampLayout)
	name := Sanitize(application)

	if room := maxJobNameLength - len(JobNamePrefix) - len(suffix); len(name) > room {
		cut := room
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimRight(name[:cut], "-")
	}

	return JobNamePrefix + name + suffix
}
