// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// progressReporter is the subset of progressbar.ProgressBar the index
// command needs; BuildIndex doesn't report per-file progress today, so this
// bar is indeterminate, but the seam lets a future incremental callback
// drive it without touching call sites.
type progressReporter interface {
	Finish() error
}

func newProgressBar() progressReporter {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
