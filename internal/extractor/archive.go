package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ArchivePath returns where Archive moves the source file of r: a directory per
// account component below destination, and the filename prefixed with the date of
// the latest transaction. Statements without transactions use the file's
// modification time.
func ArchivePath(r Result, destination string) (string, error) {
	date, err := statementDate(r)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append([]string{destination}, strings.Split(r.Account, ":")...)...)
	return filepath.Join(dir, date.Format("2006-01-02")+"."+r.Filename), nil
}

// Archive moves the source file of r into destination and returns the new path.
// An existing file is never overwritten.
func Archive(r Result, destination string) (string, error) {
	target, err := ArchivePath(r, destination)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("archive target %s already exists", target)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("error creating archive directory: %w", err)
	}
	if err := move(r.Path, target); err != nil {
		return "", fmt.Errorf("error archiving %s: %w", r.Path, err)
	}
	return target, nil
}

func statementDate(r Result) (time.Time, error) {
	var latest time.Time
	for _, t := range r.Transactions {
		if t.Date.After(latest) {
			latest = t.Date
		}
	}
	if !latest.IsZero() {
		return latest, nil
	}
	info, err := os.Stat(r.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	// rename cannot cross filesystems
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
