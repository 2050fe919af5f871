// Package naming builds and parses the file names used for collected QNG
// samples:
//
//	YYYYMMDDTHHMMSS_qng-{serial}_s{bits}_i{interval}
//
// where serial is the device id reduced to ASCII letters and digits, bits is
// the sample size per collection and interval is the collection period in
// seconds. The "-{serial}" part is omitted when the device reports no id.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Source is the device tag embedded in every name.
const Source = "qng"

const stampLayout = "20060102T150405"

var nameRE = regexp.MustCompile(`(\d{8}T\d{6})_` + Source + `(?:-([A-Za-z0-9]+))?_s(\d+)_i(\d+)`)

// Info is what a file name encodes.
type Info struct {
	Time            time.Time
	Serial          string
	Bits            int
	IntervalSeconds int
}

// SerialSlug strips everything but ASCII letters and digits from a device id.
func SerialSlug(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, id)
}

// BuildBaseName builds the base file name for a collection started at now.
func BuildBaseName(now time.Time, serial string, bits int, intervalSeconds int) (string, error) {
	if bits <= 0 {
		return "", errors.New("bits must be > 0")
	}
	if intervalSeconds <= 0 {
		return "", errors.New("intervalSeconds must be > 0")
	}
	src := Source
	if slug := SerialSlug(serial); slug != "" {
		src += "-" + slug
	}
	return fmt.Sprintf("%s_%s_s%d_i%d", now.Format(stampLayout), src, bits, intervalSeconds), nil
}

// Parse recovers the collection parameters from a path built by this package.
// Directory and extension are ignored.
func Parse(path string) (Info, error) {
	m := nameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Info{}, fmt.Errorf("not a %s sample file name: %s", Source, filepath.Base(path))
	}
	ts, err := time.ParseInLocation(stampLayout, m[1], time.Local)
	if err != nil {
		return Info{}, fmt.Errorf("timestamp %q: %w", m[1], err)
	}
	bits, err := strconv.Atoi(m[3])
	if err != nil {
		return Info{}, fmt.Errorf("bit count %q: %w", m[3], err)
	}
	interval, err := strconv.Atoi(m[4])
	if err != nil {
		return Info{}, fmt.Errorf("interval %q: %w", m[4], err)
	}
	if bits <= 0 || interval <= 0 {
		return Info{}, fmt.Errorf("bit count and interval must be > 0: %s", filepath.Base(path))
	}
	return Info{Time: ts, Serial: m[2], Bits: bits, IntervalSeconds: interval}, nil
}

// WithExt appends an extension to a base name. A leading dot in ext is
// accepted. Empty ext returns base.
func WithExt(base string, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

// JoinDir joins an optional directory with name.
func JoinDir(dir string, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// BuildBinCSVNames builds the .bin and .csv file names, without directory.
func BuildBinCSVNames(now time.Time, serial string, bits int, intervalSeconds int) (binName string, csvName string, err error) {
	base, err := BuildBaseName(now, serial, bits, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	return WithExt(base, "bin"), WithExt(base, "csv"), nil
}

// BuildBinCSVPaths builds the .bin and .csv paths inside dir (which may be
// empty).
func BuildBinCSVPaths(dir string, now time.Time, serial string, bits int, intervalSeconds int) (binPath string, csvPath string, err error) {
	binName, csvName, err := BuildBinCSVNames(now, serial, bits, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	return JoinDir(dir, binName), JoinDir(dir, csvName), nil
}
