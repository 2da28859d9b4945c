/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: oracle.go
Description: Installed-package oracle backed by adb. Lists the packages present on a connected
device with "pm list packages" so the scan can drop components of apps that are not installed.
*/

package device

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// InstalledPackageOracle reports which packages are installed on a device
type InstalledPackageOracle interface {
	ListInstalledPackages(ctx context.Context) (PackageSet, error)
}

// PackageSet is a set of package names
type PackageSet map[string]struct{}

// NewPackageSet builds a set from names
func NewPackageSet(names ...string) PackageSet {
	set := make(PackageSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether the package is in the set
func (s PackageSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order
func (s PackageSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// OracleUnavailableError wraps any failure to obtain the package list
type OracleUnavailableError struct {
	Err error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("installed package list unavailable: %v", e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }

// Runner executes a command and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ADBOracle queries a device through the adb binary
type ADBOracle struct {
	Serial  string // adb device serial, empty for the only attached device
	ADBPath string // adb binary, "adb" from PATH when empty
	run     Runner
}

// NewADBOracle creates an oracle for the given device serial
func NewADBOracle(serial string) *ADBOracle {
	return &ADBOracle{Serial: serial, ADBPath: "adb", run: execRunner}
}

// WithRunner replaces the process runner, used by tests
func (o *ADBOracle) WithRunner(run Runner) *ADBOracle {
	o.run = run
	return o
}

// Args returns the adb argument list for the package query
func (o *ADBOracle) Args() []string {
	var args []string
	if o.Serial != "" {
		args = append(args, "-s", o.Serial)
	}
	return append(args, "shell", "pm", "list", "packages")
}

// ListInstalledPackages runs pm list packages on the device
func (o *ADBOracle) ListInstalledPackages(ctx context.Context) (PackageSet, error) {
	bin := o.ADBPath
	if bin == "" {
		bin = "adb"
	}
	run := o.run
	if run == nil {
		run = execRunner
	}

	output, err := run(ctx, bin, o.Args()...)
	if err != nil {
		return nil, &OracleUnavailableError{Err: fmt.Errorf("%s %s: %v, output: %s",
			bin, strings.Join(o.Args(), " "), err, bytes.TrimSpace(output))}
	}

	set := ParsePackageList(output)
	if len(set) == 0 {
		return nil, &OracleUnavailableError{Err: fmt.Errorf("no packages in output: %s", bytes.TrimSpace(output))}
	}
	return set, nil
}

// ParsePackageList extracts names from "package:<name>" lines. Lines produced by
// pm list packages -f ("package:/path/base.apk=<name>") are handled too.
func ParsePackageList(output []byte) PackageSet {
	set := make(PackageSet)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, ok := strings.CutPrefix(line, "package:")
		if !ok {
			continue
		}
		if i := strings.LastIndex(name, "="); i >= 0 {
			name = name[i+1:]
		}
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// StaticOracle returns a fixed package set, or Err when set
type StaticOracle struct {
	Packages PackageSet
	Err      error
}

// ListInstalledPackages returns the configured set
func (o StaticOracle) ListInstalledPackages(ctx context.Context) (PackageSet, error) {
	if o.Err != nil {
		return nil, &OracleUnavailableError{Err: o.Err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &OracleUnavailableError{Err: err}
	}
	return o.Packages, nil
}
