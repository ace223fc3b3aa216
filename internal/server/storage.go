package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/codewing/plugin-updater/pkg/manifest"
)

var errManifestNotFound = errors.New("manifest not found")

func getManifestObjectKey(slug string) string {
	return fmt.Sprintf("manifests/%s.json", slug)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func (s *Server) loadManifest(ctx context.Context, slug string) (*manifest.Manifest, error) {
	key := getManifestObjectKey(slug)
	res, err := s.storage.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.config.GetBucket(),
		Key:    &key,
	})
	if isNotFound(err) {
		return nil, errManifestNotFound
	}
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if err != nil {
		return nil, err
	}
	return manifest.Parse(body)
}

func (s *Server) storeManifest(ctx context.Context, m *manifest.Manifest) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	key := getManifestObjectKey(m.Slug)
	_, err = s.storage.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.config.GetBucket(),
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"version": m.Version,
		},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}
