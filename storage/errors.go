/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package storage

import "fmt"

// RunExists is returned by MakeRun for a run that's already there.
type RunExists struct {
	Rid string
}

func (e *RunExists) Error() string {
	return fmt.Sprintf("run %s already exists", e.Rid)
}

// NotFound is returned when removing a run that isn't there.
type NotFound struct {
	Rid string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("run %s not found", e.Rid)
}
