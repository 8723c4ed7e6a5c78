package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	gcstorage "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

// ObjectWriter is the subset of bucket operations GCSStore needs.
type ObjectWriter interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) error
	Delete(ctx context.Context, objectPath string) error
}

type bucketObjects struct {
	client *gcstorage.Client
	bucket string
}

// NewBucketObjects adapts a GCS client bound to one bucket.
func NewBucketObjects(client *gcstorage.Client, bucket string) ObjectWriter {
	return bucketObjects{client: client, bucket: bucket}
}

func (b bucketObjects) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	_, err := helpers.UploadObject(ctx, b.client, b.bucket, objectPath, contentType, r)
	return err
}

func (b bucketObjects) Delete(ctx context.Context, objectPath string) error {
	return helpers.DeleteObject(ctx, b.client, b.bucket, objectPath)
}

// GCSStore uploads avatars as objects named "Prefix/<file>". When an upload
// fails, objects already written by the same call are deleted.
//
// References are absolute URLs: PublicBase + "/" + object when PublicBase is set
// (a CDN or load balancer in front of the bucket), the public storage.googleapis.com
// URL of the object otherwise.
type GCSStore struct {
	Objects    ObjectWriter
	Bucket     string
	Prefix     string
	PublicBase string
	Logger     *logrus.Logger
}

func NewGCSStore(objects ObjectWriter, bucket, prefix, publicBase string, logger *logrus.Logger) *GCSStore {
	return &GCSStore{Objects: objects, Bucket: bucket, Prefix: prefix, PublicBase: publicBase, Logger: logger}
}

func (s *GCSStore) ref(object string) string {
	if s.PublicBase != "" {
		return strings.TrimRight(s.PublicBase, "/") + "/" + object
	}
	return helpers.PublicURL(s.Bucket, object)
}

func (s *GCSStore) Store(ctx context.Context, accountID string, res transcoder.Result) (entity.Avatar, error) {
	written := make([]string, 0, 3)
	for _, v := range res.Variants() {
		obj := path.Join(s.Prefix, variantName(accountID, v, res.Extension))
		if err := s.Objects.Upload(ctx, obj, res.ContentType, bytes.NewReader(v.Data)); err != nil {
			s.rollback(ctx, written)
			return entity.Avatar{}, fmt.Errorf("%w: upload %s: %v", repository.ErrStorageFailure, obj, err)
		}
		written = append(written, obj)
	}
	rel := avatarRefs(s.Prefix, accountID, res)
	return entity.Avatar{
		Large:  s.ref(rel.Large),
		Medium: s.ref(rel.Medium),
		Small:  s.ref(rel.Small),
	}, nil
}

func (s *GCSStore) rollback(ctx context.Context, objects []string) {
	for _, obj := range objects {
		if err := s.Objects.Delete(ctx, obj); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("object", obj).Warn("gcs rollback failed")
		}
	}
}
