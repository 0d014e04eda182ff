package config

import "time"

const (
	// DefaultNamespace is the namespace the controller runs in when
	// NAMESPACE is not set.
	DefaultNamespace = "bd-selfscan-system"

	// DefaultApplicationsConfigMap holds the application definitions.
	DefaultApplicationsConfigMap = "bd-selfscan-applications"

	// DefaultApplicationsKey is the ConfigMap data key of the definitions document.
	DefaultApplicationsKey = "applications.yaml"

	// DefaultCommandTemplate runs the scan script against the application name.
	DefaultCommandTemplate = "/scripts/scan-application.sh {{ .Application | squote }}"

	// DefaultInitCommand provisions the tooling the scan script needs.
	DefaultInitCommand = "apk add --no-cache curl jq bash coreutils openjdk17-jre skopeo yq && " +
		"curl -fsSL -o /usr/local/bin/kubectl " +
		"\"https://dl.k8s.io/release/$(curl -L -s https://dl.k8s.io/release/stable.txt)/bin/linux/amd64/kubectl\" && " +
		"chmod +x /usr/local/bin/kubectl"
)

// GetDefaultConfig returns the default controller configuration.
func GetDefaultConfig() ControllerConfig {
	return ControllerConfig{
		Namespace: DefaultNamespace,
		LogFormat: "text",
		Applications: ApplicationsConfig{
			Source:        SourceConfigMap,
			ConfigMapName: DefaultApplicationsConfigMap,
			ConfigMapKey:  DefaultApplicationsKey,
		},
		Intervals: IntervalsConfig{
			WatchTimeout:       5 * time.Minute,
			WatchRetryDelay:    30 * time.Second,
			SweepInterval:      time.Hour,
			JobRetention:       24 * time.Hour,
			MonitorInterval:    time.Minute,
			ReloadInterval:     10 * time.Minute,
			ActivityRetryDelay: 300 * time.Second,
		},
		Server: ServerConfig{
			MetricsAddr: ":8080",
			HealthAddr:  ":8081",
		},
		Scanner: ScannerConfig{
			Image:                   "alpine:3.19",
			InitImage:               "alpine:3.19",
			InitCommand:             DefaultInitCommand,
			ServiceAccountName:      "bd-selfscan",
			CredentialsSecret:       "blackduck-creds",
			ScriptsConfigMap:        "bd-selfscan-scanner-scripts",
			CommandTemplate:         DefaultCommandTemplate,
			BackoffLimit:            2,
			TTLSecondsAfterFinished: 3600,
			StagingSizeLimit:        "50Gi",
			Resources: ResourcesConfig{
				RequestsCPU:            "500m",
				RequestsMemory:         "2Gi",
				LimitsCPU:              "4",
				LimitsMemory:           "8Gi",
				LimitsEphemeralStorage: "50Gi",
			},
		},
	}
}
