// Package distcache copies files registered with a job's settings into the
// local in-memory store, the way a task tracker localizes its cache.
package distcache

import (
	"context"
	"path"
	"strings"

	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/adapters"
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
)

const (
	CacheFilesKey = "mapred.cache.files"
	LocalFilesKey = "mapred.cache.localFiles"

	// BaseLocalDir is the directory of the local store cache files are copied into.
	BaseLocalDir = "/mapred/local/taskTracker/distcache/"
)

var ErrNoCacheFiles = errors.New("no files added to distributed cache")

// AddCacheFile appends uri to the cache files of s.
func AddCacheFile(s config.Settings, uri string) error {
	if s == nil {
		return errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	if strings.TrimSpace(uri) == "" {
		return errors.Wrap(filesystem.ErrInvalidArgument, "cache file uri must not be blank")
	}
	s.Set(CacheFilesKey, strings.Join(append(CacheFiles(s), uri), ","))
	return nil
}

// CacheFiles returns the URIs added with AddCacheFile.
func CacheFiles(s config.Settings) []string {
	return splitList(s.Get(CacheFilesKey))
}

// LocalCacheFiles returns the local paths written by the last Localize.
func LocalCacheFiles(s config.Settings) []string {
	return splitList(s.Get(LocalFilesKey))
}

// Localize copies every cache file of s from the file system serving its URI
// into BaseLocalDir of the local store and records the resulting local paths
// under LocalFilesKey. BaseLocalDir is created even when no cache files were
// added. The scheme of every cache file must have an implementation
// configured in s.
func Localize(ctx context.Context, impls *adapters.ImplRegistry, reg *filesystem.Registry, s config.Settings) ([]string, error) {
	if s == nil {
		return nil, errors.Wrap(filesystem.ErrInvalidArgument, "settings must not be nil")
	}
	logger := util.GetLogger("Localize")

	dst := memfs.NewLocal(reg)
	if err := dst.Mkdirs(BaseLocalDir); err != nil {
		return nil, errors.Wrap(err, "failed to create local cache directory")
	}

	uris := CacheFiles(s)
	if len(uris) == 0 {
		return nil, ErrNoCacheFiles
	}

	local := make([]string, 0, len(uris))
	for _, uri := range uris {
		src, err := impls.ForURI(reg, s, uri)
		if err != nil {
			return nil, errors.Wrapf(err, "no file system for cache file %s", uri)
		}
		_, srcPath := filesystem.SplitScheme(uri)
		if err := memfs.Copy(ctx, src, srcPath, dst, BaseLocalDir); err != nil {
			return nil, errors.Wrapf(err, "failed to localize %s", uri)
		}
		p := path.Join(BaseLocalDir, path.Base(srcPath))
		local = append(local, p)
		logger.Debug().Str("uri", uri).Str("local", p).Msg("Localized cache file")
	}

	s.Set(LocalFilesKey, strings.Join(local, ","))
	logger.Info().Int("files", len(local)).Msg("Localized distributed cache")
	return local, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
