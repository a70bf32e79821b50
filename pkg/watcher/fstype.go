package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemType classifies the filesystem backing a watched path.
// Remote filesystems deliver inotify events unreliably (or not at all),
// so the watcher falls back to polling for them.
type FilesystemType string

// Known filesystem classifications.
const (
	FSTypeUnknown FilesystemType = "unknown"
	FSTypeLocal   FilesystemType = "local"
	FSTypeNFS     FilesystemType = "nfs"
	FSTypeSMB     FilesystemType = "smb"
	FSTypeSSHFS   FilesystemType = "sshfs"
	FSTypeFUSE    FilesystemType = "fuse"
)

// detectFilesystemTypeFunc allows tests to stub filesystem detection.
var detectFilesystemTypeFunc = DetectFilesystemType

// String returns the classification name.
func (t FilesystemType) String() string {
	return string(t)
}

// remoteFSNames maps /proc/mounts fstype names to classifications that
// require polling.
var remoteFSNames = map[string]FilesystemType{
	"nfs":        FSTypeNFS,
	"nfs4":       FSTypeNFS,
	"cifs":       FSTypeSMB,
	"smbfs":      FSTypeSMB,
	"smb2":       FSTypeSMB,
	"fuse":       FSTypeFUSE,
	"fuseblk":    FSTypeFUSE,
	"fuse.sshfs": FSTypeSSHFS,
	"9p":         FSTypeFUSE,
}

// DetectFilesystemType returns a best-effort classification for the
// filesystem containing path. On platforms without /proc/mounts it
// returns FSTypeUnknown.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return FSTypeUnknown
	}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return FSTypeUnknown
	}
	defer f.Close()

	// Longest mount-point prefix wins.
	bestLen := -1
	best := FSTypeUnknown

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsName := fields[1], fields[2]
		if !pathHasPrefix(abs, mountPoint) {
			continue
		}
		if len(mountPoint) <= bestLen {
			continue
		}
		bestLen = len(mountPoint)
		if t, ok := remoteFSNames[fsName]; ok {
			best = t
		} else if strings.HasPrefix(fsName, "fuse") {
			best = FSTypeFUSE
		} else {
			best = FSTypeLocal
		}
	}
	if err := scanner.Err(); err != nil {
		return FSTypeUnknown
	}

	return best
}

// isRemoteFilesystem reports whether the classification needs polling.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}

// pathHasPrefix reports whether path is at or below mountPoint,
// respecting path component boundaries.
func pathHasPrefix(path, mountPoint string) bool {
	if mountPoint == "/" {
		return true
	}
	if path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, mountPoint+string(os.PathSeparator))
}
