package sys

import "strconv"

// undecoratedExports lists the mapi32.dll entry points that are exported
// without the stdcall "@<argbytes>" suffix on 32-bit x86. Everything else in
// mapi32.dll carries the suffix there. The table is read-only after init.
var undecoratedExports = map[string]struct{}{
	"FixMAPI":                       {},
	"GetOutlookVersion":             {},
	"HrGetOmiProvidersFlags":        {},
	"HrSetOmiProvidersFlagsInvalid": {},
}

// ExportName returns the symbol to look up for fn, which takes argBytes bytes
// of arguments, on the given GOARCH.
func ExportName(fn string, argBytes uintptr, goarch string) string {
	if goarch != "386" {
		return fn
	}
	if _, ok := undecoratedExports[fn]; ok {
		return fn
	}
	return fn + "@" + strconv.FormatUint(uint64(argBytes), 10)
}
