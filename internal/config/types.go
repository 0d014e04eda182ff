package config

import "time"

// ControllerConfig is the top-level configuration structure for the
// selfscan controller.
type ControllerConfig struct {
	// Namespace is where the controller reads its applications ConfigMap and
	// where scan jobs are created.
	Namespace string `yaml:"namespace"`

	Debug     bool   `yaml:"debug,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty"` // text or json

	Applications ApplicationsConfig `yaml:"applications"`
	Intervals    IntervalsConfig    `yaml:"intervals"`
	Server       ServerConfig       `yaml:"server"`
	Scanner      ScannerConfig      `yaml:"scanner"`
}

// ApplicationsSource selects where application definitions are read from.
type ApplicationsSource string

const (
	SourceConfigMap ApplicationsSource = "configmap"
	SourceFile      ApplicationsSource = "file"
)

// ApplicationsConfig describes the application definitions document.
type ApplicationsConfig struct {
	Source        ApplicationsSource `yaml:"source"`
	ConfigMapName string             `yaml:"configMapName"`
	ConfigMapKey  string             `yaml:"configMapKey"`

	// FilePath is only used with the file source.
	FilePath string `yaml:"filePath,omitempty"`

	// WatchFile reloads the file source on change in addition to the
	// periodic reload.
	WatchFile bool `yaml:"watchFile,omitempty"`
}

// IntervalsConfig holds the timers of the independent activities.
type IntervalsConfig struct {
	WatchTimeout       time.Duration `yaml:"watchTimeout"`
	WatchRetryDelay    time.Duration `yaml:"watchRetryDelay"`
	SweepInterval      time.Duration `yaml:"sweepInterval"`
	JobRetention       time.Duration `yaml:"jobRetention"`
	MonitorInterval    time.Duration `yaml:"monitorInterval"`
	ReloadInterval     time.Duration `yaml:"reloadInterval"`
	ActivityRetryDelay time.Duration `yaml:"activityRetryDelay"`
}

// ServerConfig configures the metrics and probe listeners.
type ServerConfig struct {
	MetricsAddr string `yaml:"metricsAddr"`
	HealthAddr  string `yaml:"healthAddr"`
}

// ScannerConfig describes the scan job every trigger produces.
type ScannerConfig struct {
	Image              string `yaml:"image"`
	InitImage          string `yaml:"initImage"`
	InitCommand        string `yaml:"initCommand"`
	ServiceAccountName string `yaml:"serviceAccountName"`
	CredentialsSecret  string `yaml:"credentialsSecret"`
	ScriptsConfigMap   string `yaml:"scriptsConfigMap"`

	// CommandTemplate is a text/template (with sprig functions) rendered
	// into the scanner shell command. Available fields: .Application,
	// .Namespace, .Trigger.
	CommandTemplate string `yaml:"commandTemplate"`

	BackoffLimit            int32  `yaml:"backoffLimit"`
	TTLSecondsAfterFinished int32  `yaml:"ttlSecondsAfterFinished"`
	StagingSizeLimit        string `yaml:"stagingSizeLimit"`

	Resources ResourcesConfig `yaml:"resources"`
}

// ResourcesConfig holds the fixed scanner container resources.
type ResourcesConfig struct {
	RequestsCPU            string `yaml:"requestsCPU"`
	RequestsMemory         string `yaml:"requestsMemory"`
	LimitsCPU              string `yaml:"limitsCPU"`
	LimitsMemory           string `yaml:"limitsMemory"`
	LimitsEphemeralStorage string `yaml:"limitsEphemeralStorage"`
}
