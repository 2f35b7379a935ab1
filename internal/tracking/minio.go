package tracking

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/roach88/brancheval/internal/record"
)

// User metadata keys read from artifact objects. S3 returns them with the
// X-Amz-Meta- prefix, matched case-insensitively.
const (
	metaArtifactType = "artifact-type"
	metaAliases      = "aliases"
)

// ObjectStoreConfig locates run artifacts in an S3-compatible bucket laid
// out as <prefix>/<run-id>/<artifact>/<files...>.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Enabled reports whether an object store is configured at all.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// Validate checks the fields needed to connect.
func (c ObjectStoreConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("object store endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("object store endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("object store bucket is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("object store credentials are required")
	}
	return nil
}

// MinioArtifacts lists run artifacts from an S3-compatible bucket.
type MinioArtifacts struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioArtifacts connects to the configured object store.
func NewMinioArtifacts(cfg ObjectStoreConfig) (*MinioArtifacts, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioArtifacts{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ListArtifacts implements ArtifactSource. Objects under one artifact
// directory are folded into a single artifact whose size is their sum.
func (m *MinioArtifacts) ListArtifacts(ctx context.Context, runID string) ([]record.Artifact, error) {
	if m == nil || m.client == nil {
		return nil, errors.New("minio artifacts not initialized")
	}
	runPrefix := RunPrefix(m.prefix, runID)

	var objects []minio.ObjectInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:       runPrefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list artifacts for run %s: %w", runID, obj.Err)
		}
		objects = append(objects, obj)
	}
	return groupArtifacts(runPrefix, objects), nil
}

// RunPrefix returns the object key prefix holding a run's artifacts.
func RunPrefix(prefix, runID string) string {
	if prefix == "" {
		return runID + "/"
	}
	return path.Join(prefix, runID) + "/"
}

func groupArtifacts(runPrefix string, objects []minio.ObjectInfo) []record.Artifact {
	byName := make(map[string]*record.Artifact)
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, runPrefix)
		name, _, _ := strings.Cut(rel, "/")
		if name == "" {
			continue
		}
		a, ok := byName[name]
		if !ok {
			a = &record.Artifact{Name: name, Aliases: []string{}}
			byName[name] = a
		}
		if obj.Size > 0 {
			a.Size += obj.Size
		}
		if a.Type == "" {
			a.Type = userMeta(obj.UserMetadata, metaArtifactType)
		}
		if len(a.Aliases) == 0 {
			a.Aliases = splitAliases(userMeta(obj.UserMetadata, metaAliases))
		}
	}

	out := make([]record.Artifact, 0, len(byName))
	for _, a := range byName {
		if a.Type == "" {
			a.Type = "unknown"
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func userMeta(meta map[string]string, key string) string {
	for k, v := range meta {
		lower := strings.ToLower(k)
		if lower == key || lower == "x-amz-meta-"+key {
			return v
		}
	}
	return ""
}

func splitAliases(s string) []string {
	out := []string{}
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
