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

package destination

import (
	"context"
	"io"

	"github.com/datazip-inc/tap-toast/types"
)

// Writer serializes protocol messages for the downstream sink
type Writer interface {
	Type() string
	// Setup binds the writer to its output, called once before any message
	Setup(out io.Writer) error
	WriteSchema(ctx context.Context, msg *types.Schema) error
	WriteRecord(ctx context.Context, msg *types.RecordRow) error
	// WriteState must reach the sink before returning, since state marks
	// everything before it as delivered
	WriteState(ctx context.Context, msg *types.StateRow) error
	Close() error
}
