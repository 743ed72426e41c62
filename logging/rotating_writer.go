package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// dailyLogFiles writes to <name>-<date>.log, opening a new file when the local date changes.
// On every rotation it prunes files of the same name that are older than retainDays.
type dailyLogFiles struct {
	dir        string
	name       string
	retainDays int
	now        func() time.Time

	mu   sync.Mutex
	file *os.File
	date string
}

func newDailyLogFiles(dir, name string, retainDays int) *dailyLogFiles {
	return &dailyLogFiles{
		dir:        dir,
		name:       name,
		retainDays: retainDays,
		now:        time.Now,
	}
}

func (d *dailyLogFiles) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if date := now.Format(dateLayout); d.file == nil || date != d.date {
		if err := d.open(date); err != nil {
			return 0, err
		}
		d.prune(now)
	}

	return d.file.Write(p)
}

func (d *dailyLogFiles) path(date string) string {
	return filepath.Join(d.dir, d.name+"-"+date+".log")
}

func (d *dailyLogFiles) open(date string) error {
	file, err := os.OpenFile(d.path(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = file
	d.date = date
	return nil
}

// prune is best effort; a file that cannot be removed is tried again on the next rotation
func (d *dailyLogFiles) prune(now time.Time) {
	if d.retainDays <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(d.dir, d.name+"-*.log"))
	if err != nil {
		return
	}

	y, m, day := now.Date()
	cutoff := time.Date(y, m, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -d.retainDays)

	for _, match := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(match), d.name+"-"), ".log")
		date, err := time.ParseInLocation(dateLayout, stamp, now.Location())
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			os.Remove(match)
		}
	}
}

// Close closes the current file. A later Write opens it again.
func (d *dailyLogFiles) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
