// Package run_manager owns the runtime directory of a node process and the
// run.lock file inside it.
package run_manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/utils"
	"gopkg.in/ini.v1"
)

// LockName is the lock file kept in the runtime directory.
const LockName = "run.lock"

const runtimeSuffix = "edumonitor-runtime"

// RunDir is a per process directory under the temp dir, named after the
// node uuid so a second process of the same node can be detected.
type RunDir struct {
	path string
	uuid string
}

// Lock is the content of run.lock.
type Lock struct {
	PID       int
	Version   string
	UUID      string
	Role      string
	StartedAt time.Time
}

// Create makes the runtime directory. It fails when another process of
// the same node still has one.
func Create(uuid32 string) (*RunDir, error) {
	busy, err := exists(uuid32)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, fmt.Errorf("a node with identifier %s is already running", uuid32)
	}
	path, err := os.MkdirTemp("", fmt.Sprintf("*-%s-%s", uuid32, runtimeSuffix))
	if err != nil {
		return nil, err
	}
	return &RunDir{path: path, uuid: uuid32}, nil
}

func exists(uuid32 string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), fmt.Sprintf("*-%s-%s", uuid32, runtimeSuffix)))
	if err != nil {
		return false, err
	}
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return true, nil
		}
	}
	return false, nil
}

func (r *RunDir) Path() string {
	return r.path
}

// Join returns a path inside the runtime directory.
func (r *RunDir) Join(elem ...string) string {
	return filepath.Join(append([]string{r.path}, elem...)...)
}

// WriteLock writes run.lock as an ini file with a single runtime section.
func (r *RunDir) WriteLock(l *Lock) error {
	lockFile := ini.Empty()
	secRun, err := lockFile.NewSection("runtime")
	if err != nil {
		return err
	}
	secRun.Key("pid").SetValue(strconv.Itoa(l.PID))
	secRun.Key("version").SetValue(l.Version)
	secRun.Key("uuid").SetValue(l.UUID)
	secRun.Key("role").SetValue(l.Role)
	secRun.Key("timestamp").SetValue(l.StartedAt.Format("2006-01-02/15:04:05 MST"))
	secRun.Key("timestamp-unix").SetValue(strconv.FormatInt(l.StartedAt.Unix(), 10))
	return lockFile.SaveTo(r.Join(LockName))
}

// ReadLock loads run.lock back.
func (r *RunDir) ReadLock() (*Lock, error) {
	f, err := ini.Load(r.Join(LockName))
	if err != nil {
		return nil, err
	}
	sec := f.Section("runtime")
	pid, err := sec.Key("pid").Int()
	if err != nil {
		return nil, fmt.Errorf("run.lock: pid: %w", err)
	}
	unix, err := sec.Key("timestamp-unix").Int64()
	if err != nil {
		return nil, fmt.Errorf("run.lock: timestamp-unix: %w", err)
	}
	return &Lock{
		PID:       pid,
		Version:   sec.Key("version").String(),
		UUID:      sec.Key("uuid").String(),
		Role:      sec.Key("role").String(),
		StartedAt: time.Unix(unix, 0),
	}, nil
}

// Watch polls run.lock every interval and calls callback once when the file
// is removed, replaced or modified. A panic in callback is logged and ends
// the watch. The returned function stops watching.
func (r *RunDir) Watch(parentCtx context.Context, interval time.Duration, callback func()) (context.CancelFunc, error) {
	path := r.Join(LockName)
	orig, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parentCtx)
	go func() {
		defer utils.CatchPanic()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil && !os.IsNotExist(err) {
					continue
				}
				if err != nil || !os.SameFile(orig, info) || !info.ModTime().Equal(orig.ModTime()) {
					callback()
					return
				}
			}
		}
	}()
	return cancel, nil
}

// Clean removes the runtime directory with everything in it.
func (r *RunDir) Clean() error {
	return os.RemoveAll(r.path)
}
