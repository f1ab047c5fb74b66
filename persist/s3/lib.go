// Package s3 stores regiontree nodes as objects in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultKnownNames is how many object names a Persist remembers as
// already present in the bucket.
const DefaultKnownNames = 1000

// S3Interface is the subset of the S3 client used by Persist.
type S3Interface interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Persist implements the regiontree.Persist interface for storing and
// loading nodes as objects. Since node names are content addresses, names
// it has already seen are not written again.
type Persist struct {
	s3         S3Interface
	BucketName string
	Prefix     string
	known      *lru.Cache
}

// Load loads the bytes persisted in the named object.
func (p *Persist) Load(ctx context.Context, name string) ([]byte, error) {
	key := p.key(name)
	output, err := p.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.BucketName),
		Key:    key,
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", *key, err)
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", *key, err)
	}
	p.known.Add(name, nil)
	return b, nil
}

// Store persists the given bytes in an object of the given name, if it
// isn't known to exist already.
func (p *Persist) Store(ctx context.Context, name string, b []byte) error {
	if p.known.Contains(name) {
		return nil
	}
	key := p.key(name)
	_, err := p.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.BucketName),
		Key:         key,
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/x-protobuf"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", *key, err)
	}
	p.known.Add(name, nil)
	return nil
}

func (p *Persist) key(name string) *string {
	return aws.String(p.Prefix + name)
}

// NewPersist returns a Persist that loads and stores nodes as objects
// with the given S3 client and bucket name, under the given key prefix.
func NewPersist(client S3Interface, bucketName, prefix string) *Persist {
	known, err := lru.New(DefaultKnownNames)
	if err != nil {
		panic(err)
	}
	return &Persist{client, bucketName, prefix, known}
}
