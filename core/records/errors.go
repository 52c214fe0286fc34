/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Hierarchia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package records

import "errors"

// The messages of ErrInvalidParent and ErrParentDeleted are shown to users
// as-is and must not change.
var (
	ErrInvalidParent  = errors.New("Invalid parent row ID!")
	ErrParentDeleted  = errors.New("Cannot add child row to deleted parent row!")
	ErrRowNotFound    = errors.New("row not found")
	ErrDuplicateKey   = errors.New("duplicate row key")
	ErrMissingKey     = errors.New("row has no primary key")
	ErrInvalidOptions = errors.New("invalid tree options")
)
