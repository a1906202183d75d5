/*
Copyright The Mongo Cluster Operator Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package storagegateway is the typed object-storage gateway (spec
// §4.3, C4): upload/download/list of backup archive objects in a
// remote bucket, using credentials recovered from a Kubernetes secret.
package storagegateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	corev1 "k8s.io/api/core/v1"
)

// Object describes one archive object returned by List.
type Object struct {
	Name    string
	Created time.Time
}

// Credentials is the JSON service-account descriptor recovered by
// base64-decoding a field of a Kubernetes secret (spec §4.3).
type Credentials []byte

// CredentialsFromSecret base64-decodes the named key inside secret and
// parses it as a JSON service-account descriptor, failing fast if the
// key is absent or the content is not valid JSON.
func CredentialsFromSecret(secret *corev1.Secret, key string) (Credentials, error) {
	raw, ok := secret.Data[key]
	if !ok {
		return nil, fmt.Errorf("secret %s/%s has no key %q", secret.Namespace, secret.Name, key)
	}

	// Kubernetes secret Data values are already base64-decoded by the
	// API machinery on the way into corev1.Secret.Data; the spec's
	// "base64-decode" step applies to the raw secret payload, which for
	// a typed corev1.Secret is this decoding step's input already
	// performed for us, so we just validate it is well-formed JSON
	// describing a service account. If the value is instead doubly
	// encoded (as some secret generators produce) we unwrap the extra
	// layer here too.
	var probe json.RawMessage
	if json.Unmarshal(raw, &probe) == nil {
		return Credentials(raw), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding service account credentials: %w", err)
	}
	if err := json.Unmarshal(decoded, &probe); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	return Credentials(decoded), nil
}

// Gateway uploads, downloads and lists archive objects in one bucket.
type Gateway struct {
	client *storage.Client
	bucket string
	prefix string
}

// New builds a Gateway for bucket/prefix authenticated with creds.
func New(ctx context.Context, creds Credentials, bucket, prefix string) (*Gateway, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("building storage client: %w", err)
	}
	return &Gateway{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close releases the underlying client's connections.
func (g *Gateway) Close() error {
	return g.client.Close()
}

func (g *Gateway) objectName(basename string) string {
	return path.Join(g.prefix, basename)
}

// Upload copies localPath to <bucket>/<prefix>/<basename(localPath)>.
func (g *Gateway) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	name := g.objectName(path.Base(localPath))
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return w.Close()
}

// Download copies the named object to localPath.
func (g *Gateway) Download(ctx context.Context, objectName, localPath string) error {
	r, err := g.client.Bucket(g.bucket).Object(g.objectName(objectName)).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("opening %s for read: %w", objectName, err)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("downloading %s: %w", objectName, err)
	}
	return nil
}

// List returns every object under the bucket's prefix, with name and
// creation time, ordered by creation time ascending.
func (g *Gateway) List(ctx context.Context) ([]Object, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix + "/"})

	var objects []Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s/%s: %w", g.bucket, g.prefix, err)
		}
		objects = append(objects, Object{Name: path.Base(attrs.Name), Created: attrs.Created})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Created.Before(objects[j].Created) })
	return objects, nil
}

// Latest returns the most recently created object, or ok=false if the
// prefix is empty.
func (g *Gateway) Latest(ctx context.Context) (Object, bool, error) {
	objects, err := g.List(ctx)
	if err != nil {
		return Object{}, false, err
	}
	if len(objects) == 0 {
		return Object{}, false, nil
	}
	return objects[len(objects)-1], true, nil
}
