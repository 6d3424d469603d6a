// Package identify decides whether a statement file belongs to an importer.
package identify

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// HeadSize is how much of a file is inspected when sniffing its header
const HeadSize = 1024

const csvMimeType = "text/csv"

func init() {
	// not every system mime table knows .csv
	_ = mime.AddExtensionType(".csv", csvMimeType)
}

// Identifier reports whether a file is handled by an importer. A negative answer is
// not an error; errors are reserved for files that cannot be inspected.
type Identifier interface {
	Identify(path string) (bool, error)
}

// HeaderPrefix matches delimited text files whose first bytes start with the header
type HeaderPrefix string

// Identify implements Identifier
func (h HeaderPrefix) Identify(path string) (bool, error) {
	if !IsCSV(path) {
		return false, nil
	}
	head, err := ReadHead(path)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(head, string(h)), nil
}

// FilenameConvention matches grabber exports by name alone, e.g.
// "Assets.NL.ING.Checking.20240101-20240131.grabber.csv".
type FilenameConvention struct {
	Prefix string
	Suffix string
}

// GrabberSuffix ends every file written by the csv-grabber tool
const GrabberSuffix = ".grabber.csv"

// Grabber returns the convention for an account's grabber exports. The account
// separators are replaced the same way the grabber names its files.
func Grabber(account string) FilenameConvention {
	return FilenameConvention{
		Prefix: strings.ReplaceAll(account, ":", "."),
		Suffix: GrabberSuffix,
	}
}

// Identify implements Identifier
func (f FilenameConvention) Identify(path string) (bool, error) {
	if !IsCSV(path) {
		return false, nil
	}
	name := filepath.Base(path)
	return strings.HasPrefix(name, f.Prefix) && strings.HasSuffix(name, f.Suffix), nil
}

// IsCSV guesses from the extension whether path is delimited text
func IsCSV(path string) bool {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if t == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(t)
	return err == nil && mediaType == csvMimeType
}

// ReadHead returns up to HeadSize bytes of the decoded file contents
func ReadHead(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, HeadSize)
	n, err := io.ReadFull(SkipBOM(f), buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(buf[:n]), nil
}

// SkipBOM decodes a leading byte-order mark (UTF-8 or UTF-16) and yields UTF-8
func SkipBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
