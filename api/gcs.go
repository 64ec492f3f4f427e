package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient reads sequence documents from Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewObjectHandle returns a handle to the document gs://<bucket>/<object>.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

// sharedClient lazily creates one storage client and hands it to every
// request.  A failure to create it is remembered and returned to each caller.
type sharedClient struct {
	once   sync.Once
	create func(context.Context) (*storage.Client, error)
	client *storage.Client
	err    error
}

func newSharedClient(opts ...option.ClientOption) *sharedClient {
	return &sharedClient{create: func(ctx context.Context) (*storage.Client, error) {
		return storage.NewClient(ctx, opts...)
	}}
}

func (s *sharedClient) get() (Client, error) {
	s.once.Do(func() {
		s.client, s.err = s.create(context.Background())
		if s.err != nil {
			s.err = fmt.Errorf("creating shared storage client: %v", s.err)
		}
	})
	if s.err != nil {
		return nil, s.err
	}
	return GCSClient{s.client}, nil
}

var (
	defaultCredentialsClient = newSharedClient()
	publicClient             = newSharedClient(option.WithHTTPClient(http.DefaultClient))
)

// NewDefaultClient returns a storage client that uses the application default
// credentials.  All requests share one client.
func NewDefaultClient(_ *http.Request) (Client, error) {
	return defaultCredentialsClient.get()
}

// NewPublicClient returns an unauthenticated storage client, which can only
// read publicly-readable documents.  All requests share one client.
func NewPublicClient(_ *http.Request) (Client, error) {
	return publicClient.get()
}

// NewClientFromBearerToken constructs a storage client that reads documents
// on behalf of the caller, using the OAuth2 bearer token found in req.
func NewClientFromBearerToken(req *http.Request) (Client, error) {
	fields := strings.Split(req.Header.Get("Authorization"), " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, errMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	return NewClientFromTokenSource(req.Context(), oauth2.StaticTokenSource(&token))
}

// NewClientFromTokenSource returns a storage client that authorizes every
// request with tokens from source.
func NewClientFromTokenSource(ctx context.Context, source oauth2.TokenSource) (Client, error) {
	client, err := storage.NewClient(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("creating client with token source: %v", err)
	}
	return GCSClient{client}, nil
}

// newStorageError maps a failure to locate or read a sequence document to the
// API error reported to the caller.  Unrecognized errors are returned as is.
func newStorageError(context string, err error) error {
	switch {
	case errors.Is(err, errMissingOrInvalidToken):
		return newPermissionDeniedError(context, err)
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, fs.ErrNotExist):
		return newNotFoundError(context, fmt.Errorf("sequence document does not exist: %v", err))
	case errors.Is(err, storage.ErrBucketNotExist):
		return newNotFoundError(context, fmt.Errorf("bucket does not exist: %v", err))
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		}
	}
	return err
}
