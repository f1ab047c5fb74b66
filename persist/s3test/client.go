// Package s3test provides scratch S3 buckets for tests. Buckets live in an
// in-process gofakes3 server unless REGIONTREE_TEST_S3_ENDPOINT names a
// real endpoint.
package s3test

import (
	"fmt"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// EndpointVar names the environment variable selecting a real endpoint.
const EndpointVar = "REGIONTREE_TEST_S3_ENDPOINT"

// noRegion marks endpoints that are not AWS, such as MinIO, which only
// need some non-empty region.
const noRegion = "not-using-AWS"

// Bucket creates a fresh bucket and returns a client for it along with its
// name. The bucket is emptied and deleted when the test ends.
func Bucket(t testing.TB) (*s3.S3, string) {
	t.Helper()
	var config *aws.Config
	if os.Getenv(EndpointVar) != "" {
		config = endpointConfig(t)
	} else {
		config = fakeConfig(t)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		t.Fatalf("s3 session: %v", err)
	}
	client := s3.New(sess)

	name := BucketName()
	if _, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		t.Fatalf("create bucket %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := emptyBucket(client, name); err != nil {
			t.Logf("empty bucket %s: %v", name, err)
			return
		}
		if _, err := client.DeleteBucket(&s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
			t.Logf("delete bucket %s: %v", name, err)
		}
	})
	return client, name
}

// BucketName returns a bucket name unlikely to collide with others.
func BucketName() string {
	return "regiontree-" + uuid.NewString()
}

func fakeConfig(t testing.TB) *aws.Config {
	server := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	t.Cleanup(server.Close)
	return &aws.Config{
		Credentials:      credentials.NewStaticCredentials("TEST-ACCESSKEYID", "TEST-SECRETACCESSKEY", ""),
		Endpoint:         aws.String(server.URL),
		Region:           aws.String("ca-west-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	}
}

func endpointConfig(t testing.TB) *aws.Config {
	config := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			requireEnv(t, "AWS_ACCESS_KEY_ID"),
			requireEnv(t, "AWS_SECRET_ACCESS_KEY"),
			os.Getenv("AWS_SESSION_TOKEN"),
		),
		Endpoint:         aws.String(os.Getenv(EndpointVar)),
		Region:           aws.String(noRegion),
		S3ForcePathStyle: aws.Bool(true),
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Region = aws.String(region)
		config.Endpoint = nil
	}
	return config
}

func requireEnv(t testing.TB, key string) string {
	v := os.Getenv(key)
	if v == "" {
		t.Fatalf("%s is set but %s is not", EndpointVar, key)
	}
	return v
}

func emptyBucket(client *s3.S3, name string) error {
	objects := s3manager.NewDeleteListIterator(client, &s3.ListObjectsInput{Bucket: aws.String(name)})
	if err := s3manager.NewBatchDeleteWithClient(client).Delete(aws.BackgroundContext(), objects); err != nil {
		return fmt.Errorf("batch delete: %w", err)
	}
	return nil
}
