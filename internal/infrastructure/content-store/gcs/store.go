package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/clubnft/clubd/internal/core/ports"
	contentstore "github.com/clubnft/clubd/internal/infrastructure/content-store"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

var ErrContentNotFound = errors.New("content not found")

type store struct {
	client *storage.Client
	bucket string
}

// NewContentStore returns a content store writing objects named after their
// CID to the given bucket. Default credentials are used unless
// credentialsFile is set.
func NewContentStore(
	ctx context.Context, bucket, credentialsFile string,
) (ports.ContentStore, error) {
	bucket = strings.TrimSpace(bucket)
	if len(bucket) <= 0 {
		return nil, fmt.Errorf("missing gcs bucket")
	}

	opts := make([]option.ClientOption, 0)
	if len(credentialsFile) > 0 {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return NewContentStoreWithClient(client, bucket), nil
}

func NewContentStoreWithClient(client *storage.Client, bucket string) ports.ContentStore {
	return &store{client, bucket}
}

func (s *store) Put(ctx context.Context, name string, data []byte) (string, error) {
	c, err := contentstore.ComputeCID(data)
	if err != nil {
		return "", err
	}
	objectName := c.String()
	address := ObjectAddress(s.bucket, objectName)

	object := s.client.Bucket(s.bucket).Object(objectName)
	if _, err := object.Attrs(ctx); err == nil {
		return address, nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("failed to look up object %s: %w", objectName, err)
	}

	w := object.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	w.Metadata = map[string]string{"name": name}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		// Lost the race against an upload of the same bytes.
		if _, attrsErr := object.Attrs(ctx); attrsErr == nil {
			return address, nil
		}
		return "", fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}

	log.Debugf("uploaded %s to %s", name, address)
	return address, nil
}

func (s *store) Get(ctx context.Context, address string) ([]byte, error) {
	bucket, objectName, err := ParseObjectAddress(address)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, fmt.Errorf("object %s does not belong to bucket %s", address, s.bucket)
	}

	r, err := s.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	// nolint
	defer r.Close()

	return io.ReadAll(r)
}

func (s *store) Close() {
	if err := s.client.Close(); err != nil {
		log.WithError(err).Warn("failed to close gcs client")
	}
}

func ObjectAddress(bucket, objectName string) string {
	return fmt.Sprintf("%s%s/%s", gcsScheme, bucket, objectName)
}

// ParseObjectAddress splits gs://<bucket>/<cid> into bucket and object name.
func ParseObjectAddress(address string) (string, string, error) {
	if !strings.HasPrefix(address, gcsScheme) {
		return "", "", fmt.Errorf("invalid gcs address %s", address)
	}
	bucket, objectName, ok := strings.Cut(strings.TrimPrefix(address, gcsScheme), "/")
	if !ok || len(bucket) <= 0 || len(objectName) <= 0 {
		return "", "", fmt.Errorf("invalid gcs address %s", address)
	}
	if _, err := contentstore.ParseIpfsAddress(objectName); err != nil {
		return "", "", err
	}
	return bucket, objectName, nil
}
