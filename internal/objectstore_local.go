package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tb "github.com/lychee-technology/tablebridge"
)

// LocalObjectStore is an ObjectStore rooted at a directory on the local
// filesystem, used for tests and command-line tools operating against a
// table root that is not in S3. There is no third-party local-filesystem
// object-store library in the example pack worth pulling in for what is a
// thin wrapper over os/io (see DESIGN.md), so it uses the standard library
// only.
type LocalObjectStore struct {
	root string
}

// NewLocalObjectStore roots an ObjectStore at root, creating it if absent.
func NewLocalObjectStore(root string) (*LocalObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, tb.NewIoError("creating local object store root", err)
	}
	return &LocalObjectStore{root: root}, nil
}

func (s *LocalObjectStore) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *LocalObjectStore) Get(ctx context.Context, path string) (io.ReadCloser, tb.ObjectMeta, error) {
	meta, err := s.Head(ctx, path)
	if err != nil {
		return nil, tb.ObjectMeta{}, err
	}
	f, err := os.Open(s.abs(path))
	if err != nil {
		return nil, tb.ObjectMeta{}, tb.NewIoError("opening '"+path+"'", err)
	}
	return f, meta, nil
}

func (s *LocalObjectStore) GetRange(ctx context.Context, path string, r tb.ByteRange) ([]byte, error) {
	f, err := os.Open(s.abs(path))
	if err != nil {
		return nil, tb.NewIoError("opening '"+path+"'", err)
	}
	defer f.Close()
	buf := make([]byte, r.Length)
	n, err := f.ReadAt(buf, r.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, tb.NewIoError("reading range of '"+path+"'", err)
	}
	return buf[:n], nil
}

func (s *LocalObjectStore) GetRanges(ctx context.Context, path string, ranges []tb.ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		b, err := s.GetRange(ctx, path, r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (s *LocalObjectStore) Head(ctx context.Context, path string) (tb.ObjectMeta, error) {
	info, err := os.Stat(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return tb.ObjectMeta{}, tb.NewNotFoundError("object '" + path + "' does not exist")
		}
		return tb.ObjectMeta{}, tb.NewIoError("stat '"+path+"'", err)
	}
	return tb.ObjectMeta{Path: path, LastModified: info.ModTime(), Size: info.Size()}, nil
}

func (s *LocalObjectStore) List(ctx context.Context, prefix string) ([]tb.ObjectMeta, error) {
	root := s.abs(prefix)
	var out []tb.ObjectMeta
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, tb.ObjectMeta{
			Path:         filepath.ToSlash(rel),
			LastModified: info.ModTime(),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, tb.NewIoError("listing '"+prefix+"'", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *LocalObjectStore) ListWithDelimiter(ctx context.Context, prefix string) (tb.ListResult, error) {
	dir := s.abs(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return tb.ListResult{}, nil
		}
		return tb.ListResult{}, tb.NewIoError("listing '"+prefix+"'", err)
	}
	var result tb.ListResult
	for _, e := range entries {
		rel := strings.TrimPrefix(filepath.ToSlash(filepath.Join(prefix, e.Name())), "/")
		if e.IsDir() {
			result.CommonPrefixes = append(result.CommonPrefixes, rel+"/")
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		result.Objects = append(result.Objects, tb.ObjectMeta{Path: rel, LastModified: info.ModTime(), Size: info.Size()})
	}
	return result, nil
}

func (s *LocalObjectStore) Put(ctx context.Context, path string, data []byte) error {
	abs := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return tb.NewIoError("creating parent directory for '"+path+"'", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return tb.NewIoError("writing '"+path+"'", err)
	}
	return nil
}

func (s *LocalObjectStore) PutMultipart(ctx context.Context, path string, r io.Reader) error {
	abs := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return tb.NewIoError("creating parent directory for '"+path+"'", err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return tb.NewIoError("creating '"+path+"'", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return tb.NewIoError("writing '"+path+"'", err)
	}
	return nil
}

func (s *LocalObjectStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.abs(path)); err != nil && !os.IsNotExist(err) {
		return tb.NewIoError("deleting '"+path+"'", err)
	}
	return nil
}

func (s *LocalObjectStore) Copy(ctx context.Context, from, to string) error {
	data, err := os.ReadFile(s.abs(from))
	if err != nil {
		return tb.NewIoError("reading '"+from+"'", err)
	}
	return s.Put(ctx, to, data)
}

func (s *LocalObjectStore) Rename(ctx context.Context, from, to string) error {
	toAbs := s.abs(to)
	if err := os.MkdirAll(filepath.Dir(toAbs), 0o755); err != nil {
		return tb.NewIoError("creating parent directory for '"+to+"'", err)
	}
	if err := os.Rename(s.abs(from), toAbs); err != nil {
		return tb.NewIoError("renaming '"+from+"' to '"+to+"'", err)
	}
	return nil
}

func (s *LocalObjectStore) CopyIfNotExists(ctx context.Context, from, to string) error {
	if _, err := os.Stat(s.abs(to)); err == nil {
		return tb.NewConflictError("object '" + to + "' already exists")
	}
	return s.Copy(ctx, from, to)
}

func (s *LocalObjectStore) RenameIfNotExists(ctx context.Context, from, to string) error {
	if _, err := os.Stat(s.abs(to)); err == nil {
		return tb.NewConflictError("object '" + to + "' already exists")
	}
	return s.Rename(ctx, from, to)
}
