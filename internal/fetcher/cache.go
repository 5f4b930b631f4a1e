package fetcher

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCommitCacheSize = 512

// commitInfo is the presentation metadata of one commit.
type commitInfo struct {
	AuthorName string
	Message    string
}

// CommitCache memoises commit metadata for the lifetime of one Catalog, so
// analyses sharing a commit cost a single lookup. It is never persisted.
type CommitCache struct {
	data *lru.Cache[string, commitInfo]
}

func NewCommitCache(size int) *CommitCache {
	if size <= 0 {
		size = defaultCommitCacheSize
	}
	c, err := lru.New[string, commitInfo](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &CommitCache{data: c}
}

func (c *CommitCache) Get(sha string) (commitInfo, bool) {
	return c.data.Get(sha)
}

func (c *CommitCache) Set(sha string, info commitInfo) {
	c.data.Add(sha, info)
}

func (c *CommitCache) Len() int {
	return c.data.Len()
}
