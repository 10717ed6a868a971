/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package safego

import (
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/datazip-inc/tap-toast/utils/logger"
)

var startTime = time.Now()

// exit is swapped in tests
var exit = os.Exit

// Recovery logs a recovered panic with its stack. With terminate set the
// process exits non-zero afterwards.
func Recovery(terminate bool) {
	if err := recover(); err != nil {
		logger.Error(err)
		for _, line := range strings.Split(string(debug.Stack()), "\n") {
			logger.Error(strings.ReplaceAll(line, "\t", ""))
		}
		if terminate {
			logger.Infof("Time of execution %s", time.Since(startTime))
			exit(1)
		}
	}
}

// Go runs f in a goroutine that cannot crash the process.
func Go(f func()) {
	go func() {
		defer Recovery(false)
		f()
	}()
}
