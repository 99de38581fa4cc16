// SPDX-License-Identifier: MPL-2.0

package msix

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrGrammarMismatch is returned when a filename does not follow the bundle
// or package naming convention.
var ErrGrammarMismatch = errors.New("filename does not match naming convention")

var (
	// bundleNameRegex matches names such as
	//   Microsoft.WindowsTerminal_1.12.10393.0_8wekyb3d8bbwe.msixbundle
	//   Microsoft.WindowsTerminal_Win10Preview_1.12.10732.0_8wekyb3d8bbwe.msixbundle
	bundleNameRegex = regexp.MustCompile(
		`^Microsoft\.WindowsTerminal(?:_Win10)?(?P<Preview>Preview)?` +
			`_(?P<Version>\d+\.\d+\.\d+\.\d+)_8wekyb3d8bbwe\.msixbundle$`)

	// packageNameRegex matches names such as CascadiaPackage_1.12.10393.0_x64.msix.
	// The CPU group is deliberately loose; CPU.IsValid narrows it afterwards.
	packageNameRegex = regexp.MustCompile(
		`^CascadiaPackage_(?P<Version>\d+\.\d+\.\d+\.\d+)_(?P<CPU>.+)\.msix$`)

	bundlePreviewGroup  = bundleNameRegex.SubexpIndex("Preview")
	bundleVersionGroup  = bundleNameRegex.SubexpIndex("Version")
	packageVersionGroup = packageNameRegex.SubexpIndex("Version")
	packageCPUGroup     = packageNameRegex.SubexpIndex("CPU")
)

type (
	// BundleName holds the fields extracted from a bundle filename.
	BundleName struct {
		Version string
		Preview bool
	}

	// PackageName holds the fields extracted from a package filename.
	// CPU is the raw token and may still be unsupported.
	PackageName struct {
		Version string
		CPU     CPU
	}

	// GrammarError reports which filename failed which convention.
	// It wraps ErrGrammarMismatch for errors.Is() compatibility.
	GrammarError struct {
		Name       string
		Convention string
	}
)

// Error implements the error interface.
func (e *GrammarError) Error() string {
	return fmt.Sprintf("%q is not a %s filename", e.Name, e.Convention)
}

// Unwrap returns ErrGrammarMismatch for errors.Is() compatibility.
func (e *GrammarError) Unwrap() error { return ErrGrammarMismatch }

// MatchBundleName reports whether name is a bundle filename and, if so,
// returns its fields. The whole string must match.
func MatchBundleName(name string) (BundleName, bool) {
	m := bundleNameRegex.FindStringSubmatch(name)
	if m == nil {
		return BundleName{}, false
	}
	return BundleName{
		Version: m[bundleVersionGroup],
		Preview: m[bundlePreviewGroup] != "",
	}, true
}

// MatchPackageName reports whether name is structurally a package filename.
// It does not check the CPU token against the supported set.
func MatchPackageName(name string) (PackageName, bool) {
	m := packageNameRegex.FindStringSubmatch(name)
	if m == nil {
		return PackageName{}, false
	}
	return PackageName{
		Version: m[packageVersionGroup],
		CPU:     CPU(m[packageCPUGroup]),
	}, true
}

// ParseBundleName is MatchBundleName with a typed error on mismatch.
func ParseBundleName(name string) (BundleName, error) {
	bn, ok := MatchBundleName(name)
	if !ok {
		return BundleName{}, &GrammarError{Name: name, Convention: "bundle"}
	}
	return bn, nil
}

// ParsePackageName matches name against the package convention and
// validates the CPU token. An unknown CPU is an error even though the
// structural match succeeded.
func ParsePackageName(name string) (PackageName, error) {
	pn, ok := MatchPackageName(name)
	if !ok {
		return PackageName{}, &GrammarError{Name: name, Convention: "package"}
	}
	if valid, errs := pn.CPU.IsValid(); !valid {
		return PackageName{}, errs[0]
	}
	return pn, nil
}
