package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/pkg/logging"
)

// Source provides the raw applications document.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	String() string
}

// ConfigMapSource reads the document from a key of a ConfigMap.
type ConfigMapSource struct {
	Client    client.Reader
	Namespace string
	Name      string
	Key       string
}

// Read fetches the ConfigMap. A missing ConfigMap is an error so the registry
// keeps its previous generation; a missing key reads as an empty document.
func (s *ConfigMapSource) Read(ctx context.Context) ([]byte, error) {
	cm := &corev1.ConfigMap{}
	if err := s.Client.Get(ctx, types.NamespacedName{Namespace: s.Namespace, Name: s.Name}, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("configmap %s/%s not found: %w", s.Namespace, s.Name, err)
		}
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", s.Namespace, s.Name, err)
	}

	data, ok := cm.Data[s.Key]
	if !ok {
		logging.Warn("Registry", "ConfigMap %s/%s has no key %q, treating as empty", s.Namespace, s.Name, s.Key)
		return nil, nil
	}
	return []byte(data), nil
}

func (s *ConfigMapSource) String() string {
	return fmt.Sprintf("configmap %s/%s[%s]", s.Namespace, s.Name, s.Key)
}

// FileSource reads the document from a local file. A missing file reads as an
// empty document.
type FileSource struct {
	Path string
}

func (s *FileSource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Registry", "Applications file %s does not exist, treating as empty", s.Path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return data, nil
}

func (s *FileSource) String() string {
	return "file " + s.Path
}
