package services

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shopapi/accountsvc/internal/server/config"
	"github.com/shopapi/accountsvc/internal/server/models"
)

func newAvatarService(t *testing.T, rm *fakeRepoManager) *AvatarService {
	t.Helper()
	cfg := &config.Config{
		S3RootUser:     "admin",
		S3RootPassword: "pw",
		S3Bucket:       "avatars",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
	}
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	return NewAvatarService(db, rm, cfg)
}

func stubPresignStack(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://signed/put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://signed/get/" + *in.Key}, nil
	}
}

func TestGetUploadURL(t *testing.T) {
	stubPresignStack(t)

	svc := newAvatarService(t, newFakeRepoManager())
	key, url, err := svc.GetUploadURL(context.Background())
	if err != nil {
		t.Fatalf("GetUploadURL err: %v", err)
	}
	if !strings.HasPrefix(key, "avatars/") {
		t.Fatalf("storage key prefix: %q", key)
	}
	if url != "http://signed/put/"+key {
		t.Fatalf("url does not reference key: %q", url)
	}
}

func TestGetUploadURL_ConfigError(t *testing.T) {
	stubPresignStack(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errBoom{}
	}

	svc := newAvatarService(t, newFakeRepoManager())
	if _, _, err := svc.GetUploadURL(context.Background()); err == nil {
		t.Fatal("expected error from config loader")
	}
}

func TestGetDownloadURL(t *testing.T) {
	stubPresignStack(t)

	rm := newFakeRepoManager()
	rm.u.byID["u1"] = &models.User{ID: "u1", ImageURL: "avatars/2026/8/29/abc"}

	svc := newAvatarService(t, rm)
	url, err := svc.GetDownloadURL(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetDownloadURL err: %v", err)
	}
	if url != "http://signed/get/avatars/2026/8/29/abc" {
		t.Fatalf("url: %q", url)
	}
}

func TestGetDownloadURL_NoImage(t *testing.T) {
	stubPresignStack(t)

	rm := newFakeRepoManager()
	rm.u.byID["u1"] = &models.User{ID: "u1"}

	svc := newAvatarService(t, rm)
	url, err := svc.GetDownloadURL(context.Background(), "u1")
	if err != nil || url != "" {
		t.Fatalf("no image: got (%q, %v)", url, err)
	}
}

func TestGetDownloadURL_UnknownUser(t *testing.T) {
	stubPresignStack(t)

	svc := newAvatarService(t, newFakeRepoManager())
	if _, err := svc.GetDownloadURL(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestRandomStorageKey_Unique(t *testing.T) {
	a, b := RandomStorageKey(), RandomStorageKey()
	if a == b {
		t.Fatal("keys must not collide")
	}
}
