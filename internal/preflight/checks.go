package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"

	"meditate/internal/config"
	"meditate/internal/deps"
)

// MinFreeBytes is the free space a render run expects on each working volume.
const MinFreeBytes uint64 = 256 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParentAccess verifies a directory that is created on demand. The
// nearest existing ancestor must be writable so the directory can be made.
func CheckParentAccess(name, path string) Result {
	existing, err := nearestExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	result := CheckDirectoryAccess(name, existing)
	if result.Passed && existing != path {
		result.Detail = fmt.Sprintf("%s (created on demand under %s)", path, existing)
	}
	return result
}

// CheckFreeSpace verifies the volume holding path has at least minFree bytes.
func CheckFreeSpace(ctx context.Context, name, path string, minFree uint64) Result {
	existing, err := nearestExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	usage, err := disk.UsageWithContext(ctx, existing)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: disk usage: %v)", existing, err)}
	}
	detail := fmt.Sprintf("%s (%s free)", existing, formatBytes(usage.Free))
	if usage.Free < minFree {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %s", formatBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries a render run invokes.
// Optional binaries pass even when missing so they never block a run.
func CheckSystemDeps(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available || s.Optional}
		switch {
		case s.Available:
			r.Detail = s.Command
		case s.Optional:
			r.Detail = s.Detail + " (optional)"
		default:
			r.Detail = s.Detail
		}
		results = append(results, r)
	}
	return results
}

func nearestExisting(path string) (string, error) {
	if path == "" {
		return "", errors.New("path not configured")
	}
	current := filepath.Clean(path)
	for {
		_, err := os.Stat(current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		current = parent
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
