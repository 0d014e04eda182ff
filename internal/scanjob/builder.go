// Package scanjob builds the batch Jobs that run a container scan for an
// application.
package scanjob

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/clock"
	"k8s.io/utils/ptr"

	"selfscan/internal/config"
	"selfscan/internal/registry"
)

// Options describes the shape of the jobs a Builder produces.
type Options struct {
	// Namespace is where scan jobs are created.
	Namespace string

	Image              string
	InitImage          string
	InitCommand        string
	ServiceAccountName string
	CredentialsSecret  string
	ScriptsConfigMap   string

	// ApplicationsConfigMap is mounted read-only at /config.
	ApplicationsConfigMap string

	CommandTemplate         string
	BackoffLimit            int32
	TTLSecondsAfterFinished int32
	StagingSizeLimit        string
	Resources               config.ResourcesConfig
}

// OptionsFromConfig derives builder options from the controller configuration.
func OptionsFromConfig(cfg config.ControllerConfig) Options {
	return Options{
		Namespace:               cfg.Namespace,
		Image:                   cfg.Scanner.Image,
		InitImage:               cfg.Scanner.InitImage,
		InitCommand:             cfg.Scanner.InitCommand,
		ServiceAccountName:      cfg.Scanner.ServiceAccountName,
		CredentialsSecret:       cfg.Scanner.CredentialsSecret,
		ScriptsConfigMap:        cfg.Scanner.ScriptsConfigMap,
		ApplicationsConfigMap:   cfg.Applications.ConfigMapName,
		CommandTemplate:         cfg.Scanner.CommandTemplate,
		BackoffLimit:            cfg.Scanner.BackoffLimit,
		TTLSecondsAfterFinished: cfg.Scanner.TTLSecondsAfterFinished,
		StagingSizeLimit:        cfg.Scanner.StagingSizeLimit,
		Resources:               cfg.Scanner.Resources,
	}
}

// CommandData is the data available to the scanner command template.
type CommandData struct {
	Application string
	Namespace   string
	Trigger     string
}

// Builder turns an application definition and a trigger into a Job.
type Builder struct {
	opts    Options
	clock   clock.PassiveClock
	command *template.Template

	stagingLimit *resource.Quantity
	resources    corev1.ResourceRequirements
}

// NewBuilder validates opts and returns a Builder. A nil clock uses the
// real clock.
func NewBuilder(opts Options, clk clock.PassiveClock) (*Builder, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}

	tmpl, err := template.New("command").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(opts.CommandTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scanner command template: %w", err)
	}

	b := &Builder{opts: opts, clock: clk, command: tmpl}

	if opts.StagingSizeLimit != "" {
		q, err := resource.ParseQuantity(opts.StagingSizeLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid staging size limit %q: %w", opts.StagingSizeLimit, err)
		}
		b.stagingLimit = &q
	}

	b.resources, err = buildResources(opts.Resources)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func buildResources(rc config.ResourcesConfig) (corev1.ResourceRequirements, error) {
	req := corev1.ResourceRequirements{
		Requests: corev1.ResourceList{},
		Limits:   corev1.ResourceList{},
	}

	entries := []struct {
		list  corev1.ResourceList
		name  corev1.ResourceName
		value string
	}{
		{req.Requests, corev1.ResourceMemory, rc.RequestsMemory},
		{req.Requests, corev1.ResourceCPU, rc.RequestsCPU},
		{req.Limits, corev1.ResourceMemory, rc.LimitsMemory},
		{req.Limits, corev1.ResourceCPU, rc.LimitsCPU},
		{req.Limits, corev1.ResourceEphemeralStorage, rc.LimitsEphemeralStorage},
	}
	for _, e := range entries {
		if e.value == "" {
			continue
		}
		q, err := resource.ParseQuantity(e.value)
		if err != nil {
			return req, fmt.Errorf("invalid %s quantity %q: %w", e.name, e.value, err)
		}
		e.list[e.name] = q
	}
	return req, nil
}

// Options returns the options the builder was created with.
func (b *Builder) Options() Options {
	return b.opts
}

// Build returns the Job for def. The job name carries the current time at
// second resolution; two builds for one application within the same second
// yield the same name.
func (b *Builder) Build(def *registry.ApplicationDefinition, trigger string) (*batchv1.Job, error) {
	if def == nil {
		return nil, fmt.Errorf("application definition is required")
	}

	command, err := b.renderCommand(CommandData{
		Application: def.Name,
		Namespace:   def.Namespace,
		Trigger:     trigger,
	})
	if err != nil {
		return nil, err
	}

	jobLabels := map[string]string{
		LabelName:              AppName,
		LabelComponent:         ComponentScanner,
		LabelInstance:          AppName,
		LabelManagedBy:         ManagedBy,
		LabelScanType:          ScanTypeAutomated,
		LabelTrigger:           trigger,
		LabelTargetApplication: TargetApplication(def.Name),
	}

	podLabels := map[string]string{
		LabelName:      AppName,
		LabelComponent: ComponentScanner,
		LabelScanType:  ScanTypeAutomated,
	}

	job := &batchv1.Job{
		TypeMeta: metav1.TypeMeta{
			APIVersion: batchv1.SchemeGroupVersion.String(),
			Kind:       "Job",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      JobName(def.Name, b.clock.Now()),
			Namespace: b.opts.Namespace,
			Labels:    jobLabels,
			Annotations: map[string]string{
				AnnotationApplication: def.Name,
				AnnotationNamespace:   def.Namespace,
				AnnotationTrigger:     trigger,
				AnnotationCreatedBy:   CreatedBy,
			},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            ptr.To(b.opts.BackoffLimit),
			TTLSecondsAfterFinished: ptr.To(b.opts.TTLSecondsAfterFinished),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec: corev1.PodSpec{
					ServiceAccountName: b.opts.ServiceAccountName,
					RestartPolicy:      corev1.RestartPolicyNever,
					Volumes:            b.volumes(),
					InitContainers:     b.initContainers(),
					Containers:         []corev1.Container{b.scannerContainer(command, trigger)},
				},
			},
		},
	}

	return job, nil
}

func (b *Builder) renderCommand(data CommandData) (string, error) {
	var buf bytes.Buffer
	if err := b.command.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render scanner command for %q: %w", data.Application, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (b *Builder) volumes() []corev1.Volume {
	volumes := []corev1.Volume{
		{
			Name: VolumeScripts,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: b.opts.ScriptsConfigMap},
					DefaultMode:          ptr.To(int32(0o755)),
				},
			},
		},
	}

	if b.opts.ApplicationsConfigMap != "" {
		volumes = append(volumes, corev1.Volume{
			Name: VolumeApplications,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: b.opts.ApplicationsConfigMap},
				},
			},
		})
	}

	volumes = append(volumes, corev1.Volume{
		Name: VolumeStaging,
		VolumeSource: corev1.VolumeSource{
			EmptyDir: &corev1.EmptyDirVolumeSource{SizeLimit: b.stagingLimit},
		},
	})

	return volumes
}

func (b *Builder) initContainers() []corev1.Container {
	if b.opts.InitCommand == "" {
		return nil
	}
	return []corev1.Container{
		{
			Name:    ContainerInstallTools,
			Image:   b.opts.InitImage,
			Command: []string{"/bin/sh", "-c"},
			Args:    []string{b.opts.InitCommand},
			VolumeMounts: []corev1.VolumeMount{
				{Name: VolumeStaging, MountPath: "/tmp"},
			},
		},
	}
}

func (b *Builder) scannerContainer(command, trigger string) corev1.Container {
	mounts := []corev1.VolumeMount{
		{Name: VolumeScripts, MountPath: "/scripts"},
	}
	if b.opts.ApplicationsConfigMap != "" {
		mounts = append(mounts, corev1.VolumeMount{Name: VolumeApplications, MountPath: "/config"})
	}
	mounts = append(mounts, corev1.VolumeMount{Name: VolumeStaging, MountPath: "/tmp/container-images"})

	return corev1.Container{
		Name:         ContainerScanner,
		Image:        b.opts.Image,
		Command:      []string{"/bin/bash"},
		Args:         []string{"-c", command},
		VolumeMounts: mounts,
		Env: []corev1.EnvVar{
			b.secretEnv("BD_URL", "url"),
			b.secretEnv("BD_TOKEN", "token"),
			{Name: "TRUST_CERT", Value: "true"},
			{Name: "SCAN_TRIGGER", Value: trigger},
		},
		Resources: *b.resources.DeepCopy(),
	}
}

func (b *Builder) secretEnv(name, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: b.opts.CredentialsSecret},
				Key:                  key,
			},
		},
	}
}

// ScanLabelSelector selects automated scan jobs. It is what the retention
// sweep operates on.
func ScanLabelSelector() labels.Selector {
	return labels.SelectorFromSet(labels.Set{
		LabelName:     AppName,
		LabelScanType: ScanTypeAutomated,
	})
}

// ManagedLabelSelector selects every scan job, manual or automated.
func ManagedLabelSelector() labels.Selector {
	return labels.SelectorFromSet(labels.Set{LabelName: AppName})
}

