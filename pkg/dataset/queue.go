package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrNoPDFs = errors.New("no PDF files found")
	ErrBusy   = errors.New("processing already in progress")
)

// Queue is the ordered, de-duplicated list of PDFs waiting to be processed.
type Queue struct {
	mu    sync.Mutex
	files []string
	seen  map[string]bool
	busy  bool
}

func NewQueue() *Queue {
	return &Queue{seen: make(map[string]bool)}
}

// Add queues the PDFs among paths. Directories are walked recursively.
// It returns how many files were new; ErrNoPDFs means none of the paths
// named a PDF.
func (q *Queue) Add(paths ...string) (int, error) {
	var found []string
	for _, p := range paths {
		found = append(found, collectPDFs(p)...)
	}
	if len(found) == 0 {
		return 0, ErrNoPDFs
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, f := range found {
		if q.seen[f] {
			continue
		}
		q.seen[f] = true
		q.files = append(q.files, f)
		added++
	}
	return added, nil
}

func collectPDFs(path string) []string {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if isPDF(path) {
			return []string{path}
		}
		return nil
	}

	var found []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && isPDF(p) {
			found = append(found, p)
		}
		return nil
	})
	return found
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Clear empties the queue unless a run is in progress.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.busy {
		return ErrBusy
	}
	q.files = nil
	q.seen = make(map[string]bool)
	return nil
}

func (q *Queue) Files() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.files...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.files)
}

func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

// Begin marks a run as started and returns the files it should process.
func (q *Queue) Begin() ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.busy {
		return nil, ErrBusy
	}
	if len(q.files) == 0 {
		return nil, ErrNoPDFs
	}
	q.busy = true
	return append([]string(nil), q.files...), nil
}

func (q *Queue) End() {
	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()
}
