package ps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

var (
	ErrNotInitialized   = errors.New("persistence layer not initialized")
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotARepository   = errors.New("not a git repository")
)

type Persistence struct {
	repo         *git.Repository
	mu           sync.RWMutex
	isMemoryMode bool
}

// IsInitialized returns true if the persistence layer has a valid repository
func (p *Persistence) IsInitialized() bool {
	return p != nil && p.repo != nil
}

// ensureInitialized checks if the persistence layer is initialized and returns an error if not
func (p *Persistence) ensureInitialized() error {
	if !p.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

func NewMemoryPersistence() (Persistence, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return Persistence{}, err
	}

	return Persistence{
		repo:         repo,
		isMemoryMode: true,
	}, nil
}

// NewClonedMemoryPersistence clones the repository at gitURL into memory.
func NewClonedMemoryPersistence(ctx context.Context, gitURL string) (Persistence, error) {
	repo, err := git.CloneContext(ctx, memory.NewStorage(), memfs.New(), &git.CloneOptions{
		URL:   gitURL,
		Depth: 1,
	})
	if err != nil {
		return Persistence{}, fmt.Errorf("failed to clone %s: %w", gitURL, err)
	}

	return Persistence{
		repo:         repo,
		isMemoryMode: true,
	}, nil
}

// NewFilePersistence opens the repository under baseDir. When gitURL is set
// the repository is cloned from it; otherwise an existing repository is
// opened or a new one initialized.
func NewFilePersistence(baseDir string, gitURL *string) (Persistence, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return Persistence{}, err
	}

	wt, storer, gitDir, err := fileStorage(baseDir)
	if err != nil {
		return Persistence{}, err
	}

	var repo *git.Repository

	if gitURL != nil {
		repo, err = git.Clone(storer, wt, &git.CloneOptions{
			URL: *gitURL,
		})
		if err != nil {
			return Persistence{}, fmt.Errorf("failed to clone %s: %w", *gitURL, err)
		}
	} else {
		_, statErr := os.Stat(gitDir)
		if statErr != nil {
			repo, err = git.Init(storer, git.WithWorkTree(wt))
			if err != nil {
				return Persistence{}, err
			}
		} else {
			repo, err = git.Open(storer, wt)
			if err != nil {
				return Persistence{}, err
			}
		}
	}

	return Persistence{
		repo: repo,
	}, nil
}

// OpenFilePersistence opens the existing repository under baseDir. It never
// creates directories or initializes a repository.
func OpenFilePersistence(baseDir string) (Persistence, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return Persistence{}, fmt.Errorf("failed to open %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return Persistence{}, fmt.Errorf("%w: %s", ErrNotARepository, baseDir)
	}

	wt, storer, gitDir, err := fileStorage(baseDir)
	if err != nil {
		return Persistence{}, err
	}
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return Persistence{}, fmt.Errorf("%w: %s", ErrNotARepository, baseDir)
	}

	repo, err := git.Open(storer, wt)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Persistence{}, fmt.Errorf("%w: %s", ErrNotARepository, baseDir)
		}
		return Persistence{}, err
	}

	return Persistence{
		repo: repo,
	}, nil
}

// fileStorage returns the work tree and object storage of the repository
// under baseDir, plus the path of its .git directory.
func fileStorage(baseDir string) (billy.Filesystem, *filesystem.Storage, string, error) {
	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, nil, "", err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})
	return wt, storer, fs.Root(), nil
}
