package formatting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"selfscan/internal/registry"
	"selfscan/internal/scanjob"
)

const document = `applications:
- name: Shop
  namespace: retail
  labelSelector: "app=shop, tier=frontend"
  scanOnDeploy: true
- name: Everything
  namespace: ops
  labelSelector: ""
  scanOnDeploy: true
- name: Legacy
  namespace: ops
  labelSelector: "app in (a,b), team=core"
  scanOnDeploy: true
`

func definitions(t *testing.T) []registry.ApplicationDefinition {
	t.Helper()
	idx, err := registry.Parse([]byte(document))
	require.NoError(t, err)
	return idx.Definitions()
}

func testJob() *batchv1.Job {
	return &batchv1.Job{
		TypeMeta: metav1.TypeMeta{APIVersion: "batch/v1", Kind: "Job"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      "scan-auto-shop-20240601-120000",
			Namespace: "bd-selfscan-system",
			Annotations: map[string]string{
				scanjob.AnnotationApplication: "Shop",
				scanjob.AnnotationNamespace:   "retail",
				scanjob.AnnotationTrigger:     "manual",
			},
		},
		Spec: batchv1.JobSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					ServiceAccountName: "bd-selfscan",
					Containers: []corev1.Container{{
						Name:    "scanner",
						Image:   "alpine:3.19",
						Command: []string{"/bin/bash", "-c"},
						Args:    []string{"/scripts/scan-application.sh 'Shop'"},
					}},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "json", "yaml"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, OutputFormat(s), f)
	}

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestTableFormatter_Applications(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(Options{Format: FormatTable, Output: &buf}).FormatApplications(definitions(t)))

	out := buf.String()
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, "app=shop,tier=frontend")
	assert.Contains(t, out, "<all>")
	assert.Contains(t, out, "app in (a")
	assert.NotContains(t, out, "\x1b[", "colour is off unless requested")
}

func TestTableFormatter_NoApplications(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(Options{Output: &buf}).FormatApplications(nil))
	assert.Contains(t, buf.String(), "No applications")
}

func TestTableFormatter_Job(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(Options{Format: FormatTable, Output: &buf}).FormatJob(testJob()))

	out := buf.String()
	assert.Contains(t, out, "scan-auto-shop-20240601-120000")
	assert.Contains(t, out, "Container scanner image")
	assert.Contains(t, out, "/scripts/scan-application.sh 'Shop'")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatJSON, Output: &buf})
	require.NoError(t, f.FormatApplications(definitions(t)))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "Everything", decoded[0]["name"])

	buf.Reset()
	require.NoError(t, f.FormatApplications(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatYAML, Output: &buf})

	require.NoError(t, f.FormatApplications(definitions(t)))
	idx, err := registry.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len(), "output is a loadable applications document")

	buf.Reset()
	require.NoError(t, f.FormatJob(testJob()))
	out := buf.String()
	assert.Contains(t, out, "kind: Job")
	assert.Contains(t, out, "serviceAccountName: bd-selfscan")
	assert.Contains(t, out, "name: scan-auto-shop-20240601-120000")
}
