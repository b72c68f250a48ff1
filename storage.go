package tablebridge

import (
	"context"
	"io"
	"time"
)

// ByteRange selects a half-open byte span [Offset, Offset+Length) of an
// object, used by GetRange/GetRanges for columnar range reads.
type ByteRange struct {
	Offset int64
	Length int64
}

// ObjectMeta describes one object as returned by Head/List, mirroring the
// object_store crate's ObjectMeta (§6).
type ObjectMeta struct {
	Path         string
	LastModified time.Time
	Size         int64
	ETag         string
}

// ListResult is a page of List/ListWithDelimiter: objects found directly
// under Prefix plus the "directories" (common prefixes) one level down.
type ListResult struct {
	Objects        []ObjectMeta
	CommonPrefixes []string
}

// ObjectStore is the consumed contract for the table root's backing
// storage (§6). Scan execution only exercises the read operations below;
// writes are the commit collaborator's responsibility and are included
// here only so a single implementation can serve both paths.
type ObjectStore interface {
	Get(ctx context.Context, path string) (io.ReadCloser, ObjectMeta, error)
	GetRange(ctx context.Context, path string, r ByteRange) ([]byte, error)
	GetRanges(ctx context.Context, path string, ranges []ByteRange) ([][]byte, error)
	Head(ctx context.Context, path string) (ObjectMeta, error)
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
	ListWithDelimiter(ctx context.Context, prefix string) (ListResult, error)

	Put(ctx context.Context, path string, data []byte) error
	PutMultipart(ctx context.Context, path string, r io.Reader) error
	Delete(ctx context.Context, path string) error
	Copy(ctx context.Context, from, to string) error
	Rename(ctx context.Context, from, to string) error
	CopyIfNotExists(ctx context.Context, from, to string) error
	RenameIfNotExists(ctx context.Context, from, to string) error
}
