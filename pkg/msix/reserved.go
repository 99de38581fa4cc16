// SPDX-License-Identifier: MPL-2.0

package msix

import "strings"

// reservedNames are device names Windows refuses as file or directory
// names, with or without an extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// isReservedName reports whether a single path element is a Windows
// device name.
func isReservedName(elem string) bool {
	upper := strings.ToUpper(elem)
	if idx := strings.IndexByte(upper, '.'); idx != -1 {
		upper = upper[:idx]
	}
	return reservedNames[upper]
}

// hasReservedElement reports whether any element of a slash-separated
// archive entry name is a Windows device name. Such an entry extracts on
// other systems but yields an installer that cannot lay it out.
func hasReservedElement(name string) bool {
	for elem := range strings.SplitSeq(name, "/") {
		if elem != "" && isReservedName(elem) {
			return true
		}
	}
	return false
}
