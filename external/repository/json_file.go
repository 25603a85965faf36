package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/foxseedlab/standupbot/internal/repository"
)

const historyFilePerm = 0o644

// JSONFileRepository keeps one JSON array file per calendar month and rewrites
// the whole file on every append. It assumes a single writing process.
type JSONFileRepository struct {
	dir string
	mu  sync.Mutex
}

func NewJSONFileRepository(dir string) repository.Repository {
	return &JSONFileRepository{dir: dir}
}

func (r *JSONFileRepository) pathFor(month repository.MonthKey) string {
	return filepath.Join(r.dir, fmt.Sprintf("attendance_%s.json", month))
}

func (r *JSONFileRepository) AppendRecord(ctx context.Context, record repository.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	month, err := record.Month()
	if err != nil {
		return &repository.PersistenceError{Op: "append", Path: r.dir, Err: err}
	}
	path := r.pathFor(month)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return &repository.PersistenceError{Op: "append", Path: r.dir, Err: err}
	}
	records, err := readRecords(path)
	if err != nil {
		return err
	}
	records = append(records, record)

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &repository.PersistenceError{Op: "append", Path: path, Err: err}
	}
	if err := writeFileReplacing(path, b); err != nil {
		return &repository.PersistenceError{Op: "append", Path: path, Err: err}
	}
	return nil
}

func (r *JSONFileRepository) LoadMonth(ctx context.Context, month repository.MonthKey) ([]repository.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return readRecords(r.pathFor(month))
}

func readRecords(path string) ([]repository.AttendanceRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []repository.AttendanceRecord{}, nil
		}
		return nil, &repository.PersistenceError{Op: "read", Path: path, Err: err}
	}
	records := []repository.AttendanceRecord{}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, &repository.PersistenceError{Op: "decode", Path: path, Err: fmt.Errorf("%w: empty file", repository.ErrCorruptHistory)}
	}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, &repository.PersistenceError{Op: "decode", Path: path, Err: fmt.Errorf("%w: %v", repository.ErrCorruptHistory, err)}
	}
	return records, nil
}

// writeFileReplacing writes through a temp file in the same directory so a
// crash mid-write leaves the previous history intact.
func writeFileReplacing(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, historyFilePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
