// Package gitio reads change information out of the enclosing git
// repository. It exists for the indexer's incremental path: a commit
// range or a dirty worktree becomes the changed-files list handed to
// the symbol indexer. Nothing in here ever writes to the repository.
package gitio

import (
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/loamdev/loam/internal/apperr"
)

// Repo is a read-only handle on a git repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository enclosing path, walking up like the git CLI
// does.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "open git repository")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "resolve worktree")
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root. Indexer paths are relative to it.
func (r *Repo) Root() string { return r.root }

// CommitInfo is the metadata of one commit.
type CommitInfo struct {
	Hash    string
	Author  string
	When    time.Time
	Message string
}

// Head returns the current HEAD commit's metadata.
func (r *Repo) Head() (CommitInfo, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return CommitInfo{}, apperr.Wrap(apperr.CodeStoreUnavailable, "HEAD", err, "resolve head")
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return CommitInfo{}, apperr.Wrap(apperr.CodeStoreUnavailable, ref.Hash().String(), err, "load head commit")
	}
	return CommitInfo{
		Hash:    commit.Hash.String(),
		Author:  commit.Author.String(),
		When:    commit.Author.When.UTC(),
		Message: commit.Message,
	}, nil
}

// ChangedSince returns the paths touched between rev and HEAD, sorted
// and deduplicated. Renames contribute both sides so the indexer can
// drop the old path and pick up the new one.
func (r *Repo) ChangedSince(rev string) ([]string, error) {
	headTree, err := r.treeAt("HEAD")
	if err != nil {
		return nil, err
	}
	baseTree, err := r.treeAt(rev)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, rev, err, "diff trees")
	}

	seen := make(map[string]struct{})
	for _, ch := range changes {
		if ch.From.Name != "" {
			seen[ch.From.Name] = struct{}{}
		}
		if ch.To.Name != "" {
			seen[ch.To.Name] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// Dirty returns the paths with uncommitted changes (staged or not),
// sorted. Deleted files are included; the indexer treats a missing path
// as a removal.
func (r *Repo) Dirty() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "resolve worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "read worktree status")
	}

	seen := make(map[string]struct{})
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		seen[path] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func (r *Repo) treeAt(rev string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNotFound, rev, err, "resolve revision")
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, rev, err, "load commit")
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, rev, err, "load tree")
	}
	return tree, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
