package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	SnapshotFilename = "state.json"
	snapshotGitDir   = "history"

	defaultBranch = "main"
	commitAuthor  = "retrace"
	commitEmail   = "retrace@local"
)

// Snapshot is one committed state blob.
type Snapshot struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotStore persists exported state blobs into a local git
// repository, giving the memory a browsable history of its own
// serialized states for free.
type SnapshotStore struct {
	repo     *git.Repository
	worktree *git.Worktree
	rootPath string
}

// InitSnapshotStore creates the snapshot repository under dataDir.
// Initializing an already initialized store is an error.
func InitSnapshotStore(dataDir string) error {
	gitPath := filepath.Join(dataDir, snapshotGitDir)

	if _, err := os.Stat(gitPath); err == nil {
		return fmt.Errorf("already initialized: %s", gitPath)
	}
	if err := os.MkdirAll(gitPath, 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	fs := osfs.New(gitPath)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(dataDir)

	repo, err := git.Init(storage, wt)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = defaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	statePath := filepath.Join(dataDir, SnapshotFilename)
	if err := os.WriteFile(statePath, []byte("{}\n"), 0644); err != nil {
		return fmt.Errorf("write initial state: %w", err)
	}

	if _, err := worktree.Add(SnapshotFilename); err != nil {
		return fmt.Errorf("stage initial state: %w", err)
	}

	_, err = worktree.Commit("init: empty memory state", &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

// NewSnapshotStore opens an initialized snapshot repository.
func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	gitPath := filepath.Join(dataDir, snapshotGitDir)

	if _, err := os.Stat(gitPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot store not initialized: %s", gitPath)
	}

	fs := osfs.New(gitPath)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(dataDir)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &SnapshotStore{
		repo:     repo,
		worktree: worktree,
		rootPath: dataDir,
	}, nil
}

// Save writes the blob as the current state and commits it.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte, message string) (*Snapshot, error) {
	statePath := filepath.Join(s.rootPath, SnapshotFilename)
	if err := os.WriteFile(statePath, blob, 0644); err != nil {
		return nil, fmt.Errorf("write state file: %w", err)
	}

	if _, err := s.worktree.Add(SnapshotFilename); err != nil {
		return nil, fmt.Errorf("stage state file: %w", err)
	}

	status, err := s.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if status.File(SnapshotFilename).Staging == git.Unmodified {
		// Nothing changed since the last snapshot.
		return s.head()
	}

	hash, err := s.worktree.Commit(message, &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	return toSnapshot(commit), nil
}

// Load returns the current state blob.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	statePath := filepath.Join(s.rootPath, SnapshotFilename)

	blob, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return blob, nil
}

// LoadAt returns the state blob as of the given revision (a commit
// hash, short hash, or reference name).
func (s *SnapshotStore) LoadAt(ctx context.Context, ref string) ([]byte, error) {
	hash, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", ref, err)
	}

	commit, err := s.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	file, err := tree.File(SnapshotFilename)
	if err != nil {
		return nil, fmt.Errorf("state file at %q: %w", ref, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read state at %q: %w", ref, err)
	}
	return []byte(contents), nil
}

// History lists snapshots, newest first.
func (s *SnapshotStore) History(ctx context.Context, limit int) ([]*Snapshot, error) {
	iter, err := s.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var snapshots []*Snapshot
	count := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && count >= limit {
			return io.EOF
		}
		snapshots = append(snapshots, toSnapshot(c))
		count++
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return snapshots, nil
}

func (s *SnapshotStore) head() (*Snapshot, error) {
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("get HEAD commit: %w", err)
	}
	return toSnapshot(commit), nil
}

func toSnapshot(c *object.Commit) *Snapshot {
	return &Snapshot{
		Hash:      c.Hash.String(),
		Message:   c.Message,
		Timestamp: c.Author.When,
	}
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  commitAuthor,
		Email: commitEmail,
		When:  time.Now(),
	}
}
