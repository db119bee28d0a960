// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

// skippedCallees are names resolve_dependencies never tries to resolve:
// scalar/collection builtins, common builtin functions, the exception
// hierarchy, and "super" (handled separately via CallsSuper).
var skippedCallees = map[string]bool{
	"str": true, "int": true, "float": true, "bool": true,
	"list": true, "dict": true, "set": true, "tuple": true,
	"None": true, "True": true, "False": true,
	"print": true, "len": true, "range": true, "enumerate": true,
	"zip": true, "map": true, "filter": true, "super": true,
	"type": true, "isinstance": true, "hasattr": true, "getattr": true, "setattr": true,
	"Exception": true, "ValueError": true, "TypeError": true, "KeyError": true,
	"IndexError": true, "AttributeError": true, "RuntimeError": true,
}

func isSkippedCallee(name string) bool {
	return skippedCallees[name]
}
