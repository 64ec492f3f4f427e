package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Client is an interface to the storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to the actual storage engine in use.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// FileClient is a Client that maps buckets to directories below Root.
type FileClient struct {
	Root string
}

// NewFileClient returns a storage client function serving objects from the
// local directory root.
func NewFileClient(root string) NewStorageClientFunc {
	client := FileClient{root}
	return func(*http.Request) (Client, error) {
		return client, nil
	}
}

// NewObjectHandle returns a handle to the file <Root>/<bucket>/<object>.
func (c FileClient) NewObjectHandle(bucket, object string) ObjectHandle {
	for _, name := range append([]string{bucket}, strings.Split(object, "/")...) {
		if name == ".." {
			return fileObjectHandle{err: fmt.Errorf("invalid object path %s/%s", bucket, object)}
		}
	}
	return fileObjectHandle{path: filepath.Join(c.Root, bucket, filepath.FromSlash(object))}
}

type fileObjectHandle struct {
	path string
	err  error
}

type fileReader struct {
	io.Reader
	io.Closer
}

func (h fileObjectHandle) NewRangeReader(_ context.Context, offset, length int64) (io.ReadCloser, error) {
	if h.err != nil {
		return nil, h.err
	}
	f, err := os.Open(h.path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking to %d: %v", offset, err)
	}
	if length < 0 {
		return f, nil
	}
	return fileReader{io.LimitReader(f, length), f}, nil
}
