package gitio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
)

type testRepo struct {
	t    *testing.T
	repo *git.Repository
	wt   *git.Worktree
	root string
}

func initRepo(t *testing.T) *testRepo {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, repo: repo, wt: wt, root: root}
}

func (r *testRepo) write(rel, content string) {
	r.t.Helper()
	path := filepath.Join(r.root, rel)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

func (r *testRepo) commit(msg string, paths ...string) string {
	r.t.Helper()
	for _, p := range paths {
		_, err := r.wt.Add(p)
		require.NoError(r.t, err)
	}
	hash, err := r.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(r.t, err)
	return hash.String()
}

func TestOpen_DetectsEnclosingRepo(t *testing.T) {
	tr := initRepo(t)
	tr.write("docs/design.md", "# Design\n")
	tr.commit("initial", "docs/design.md")

	// Opening from a subdirectory walks up to the repo root.
	repo, err := Open(filepath.Join(tr.root, "docs"))
	require.NoError(t, err)
	assert.Equal(t, tr.root, repo.Root())
}

func TestOpen_NoRepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.True(t, apperr.IsCode(err, apperr.CodeStoreUnavailable))
}

func TestHead(t *testing.T) {
	tr := initRepo(t)
	tr.write("a.md", "# A\n")
	hash := tr.commit("add a", "a.md")

	repo, err := Open(tr.root)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head.Hash)
	assert.Equal(t, "add a", head.Message)
	assert.Contains(t, head.Author, "test")
}

func TestChangedSince(t *testing.T) {
	tr := initRepo(t)
	tr.write("a.md", "# A\n")
	tr.write("b.go", "package b\n")
	base := tr.commit("base", "a.md", "b.go")

	tr.write("a.md", "# A\n\n## More\n")
	tr.write("docs/new.md", "# New\n")
	tr.commit("changes", "a.md", "docs/new.md")

	repo, err := Open(tr.root)
	require.NoError(t, err)
	changed, err := repo.ChangedSince(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "docs/new.md"}, changed)
}

func TestChangedSince_UnknownRevision(t *testing.T) {
	tr := initRepo(t)
	tr.write("a.md", "x")
	tr.commit("base", "a.md")

	repo, err := Open(tr.root)
	require.NoError(t, err)
	_, err = repo.ChangedSince("no-such-branch")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDirty(t *testing.T) {
	tr := initRepo(t)
	tr.write("a.md", "# A\n")
	tr.commit("base", "a.md")

	repo, err := Open(tr.root)
	require.NoError(t, err)

	clean, err := repo.Dirty()
	require.NoError(t, err)
	assert.Empty(t, clean)

	tr.write("a.md", "# A modified\n")
	tr.write("untracked.md", "# U\n")

	dirty, err := repo.Dirty()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "untracked.md"}, dirty)
}
