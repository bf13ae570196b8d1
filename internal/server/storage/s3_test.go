package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *S3Store {
	return NewS3Store(S3Config{
		User:         "minioadmin",
		Password:     "minioadmin",
		Bucket:       "vault",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
}

// stubClients replaces the AWS constructors with cheap fakes and restores
// them when the test ends.
func stubClients(t *testing.T) *string {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	var endpoint string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint != nil {
			endpoint = *opts.BaseEndpoint
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	return &endpoint
}

func TestPresignPut(t *testing.T) {
	endpoint := stubClients(t)

	var gotKey, gotBucket string
	var gotExpiry time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotKey, gotBucket = *in.Key, *in.Bucket
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		gotExpiry = po.Expires
		return &v4.PresignedHTTPRequest{URL: "https://put.example/" + *in.Key}, nil
	}

	url, err := newStore().PresignPut(context.Background(), "assets/a/b")
	require.NoError(t, err)
	assert.Equal(t, "https://put.example/assets/a/b", url)
	assert.Equal(t, "assets/a/b", gotKey)
	assert.Equal(t, "vault", gotBucket)
	assert.Equal(t, 15*time.Minute, gotExpiry)
	assert.Equal(t, "http://127.0.0.1:9000", *endpoint)
}

func TestPresignGet(t *testing.T) {
	stubClients(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://get.example/" + *in.Key}, nil
	}

	url, err := newStore().PresignGet(context.Background(), "assets/a/b")
	require.NoError(t, err)
	assert.Equal(t, "https://get.example/assets/a/b", url)
}

func TestPresign_Errors(t *testing.T) {
	stubClients(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("put-fail")
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("get-fail")
	}

	_, err := newStore().PresignPut(context.Background(), "k")
	assert.EqualError(t, err, "put-fail")
	_, err = newStore().PresignGet(context.Background(), "k")
	assert.EqualError(t, err, "get-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = newStore().PresignPut(context.Background(), "k")
	assert.EqualError(t, err, "load-fail")
	_, err = newStore().PresignGet(context.Background(), "k")
	assert.EqualError(t, err, "load-fail")
}
