// SPDX-License-Identifier: MPL-2.0

// Package msixtest builds in-memory bundle and package archives for tests.
//
// Build returns errors for callers without a testing.TB, such as
// testscript commands; the remaining helpers fail the test instead.
//
// # Usage
//
//	pkg := msixtest.Zip(t, msixtest.File("WindowsTerminal.exe", "MZ"))
//	data := msixtest.Zip(t,
//	    msixtest.Entry{Name: msixtest.PackageName("1.12.10393.0", "x64"), Data: pkg},
//	    msixtest.File("AppxMetadata/AppxBundleManifest.xml", "<Bundle/>"),
//	)
package msixtest
