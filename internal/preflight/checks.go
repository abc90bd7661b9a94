package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"takeoutsync/internal/config"
	"takeoutsync/internal/deps"
	"takeoutsync/internal/library"
	"takeoutsync/internal/takeout"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkAccess(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadable verifies that the directory exists and can be listed.
func CheckReadable(name, path string) Result {
	return checkAccess(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkAccess(name, path string, mode uint32, ok string) Result {
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
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckSource verifies a reconcile source: a library dump file or a takeout
// directory holding at least one Google Photos directory.
func CheckSource(path string) Result {
	const name = "Source"
	if filepath.Ext(path) == ".json" {
		if _, err := library.Load(path); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (library dump)", path)}
	}
	if res := CheckReadable(name, path); !res.Passed {
		return res
	}
	dirs, err := takeout.PhotosDirs(path, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(dirs) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no %q directory found)", path, takeout.PhotosDirName)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d part(s))", path, len(dirs))}
}

// CheckSystemDeps evaluates the external binaries required by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "exiftool",
			Command:     cfg.Metadata.ExiftoolBinary,
			Description: "Required for image metadata",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Metadata.FFprobeBinary,
			Description: "Required for video metadata",
		},
	}
	if cfg.Destination.Client == config.ClientPhotos {
		requirements = append(requirements, deps.Requirement{
			Name:        "osascript",
			Command:     cfg.Destination.OsascriptBinary,
			Description: "Required to drive Apple Photos",
		})
	}
	return deps.CheckBinaries(requirements)
}
