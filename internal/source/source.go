// Package source opens the order-line table from local disk or S3.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Kind string

const (
	KindFile Kind = "file"
	KindS3   Kind = "s3"
)

// Location is a parsed source URI.
type Location struct {
	Kind   Kind
	Path   string // KindFile
	Bucket string // KindS3
	Key    string // KindS3
}

// ParseURI accepts a plain path, file:///path or s3://bucket/key.
func ParseURI(uri string) (Location, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Location{}, fmt.Errorf("empty source")
	}
	if !strings.Contains(uri, "://") {
		return Location{Kind: KindFile, Path: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("parse source %q: %w", uri, err)
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("source %q has no path", uri)
		}
		return Location{Kind: KindFile, Path: u.Path}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("source %q must be s3://bucket/key", uri)
		}
		return Location{Kind: KindS3, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

func (l Location) String() string {
	if l.Kind == KindS3 {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ObjectGetter is the part of the S3 client the opener uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves source URIs. The S3 client is created on first use from
// the default AWS credential chain unless one is supplied.
type Opener struct {
	Region string
	S3     ObjectGetter

	once    sync.Once
	initErr error
}

func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	switch loc.Kind {
	case KindS3:
		client, err := o.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(loc.Bucket),
			Key:    aws.String(loc.Key),
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", loc, err)
		}
		return out.Body, nil
	default:
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return f, nil
	}
}

func (o *Opener) s3Client(ctx context.Context) (ObjectGetter, error) {
	o.once.Do(func() {
		if o.S3 != nil {
			return
		}
		var opts []func(*awsconfig.LoadOptions) error
		if o.Region != "" {
			opts = append(opts, awsconfig.WithRegion(o.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			o.initErr = fmt.Errorf("loading AWS config: %w", err)
			return
		}
		o.S3 = s3.NewFromConfig(cfg)
	})
	return o.S3, o.initErr
}
