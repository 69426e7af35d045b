// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search provides field-scoped substring search over the document
// library.
//
// Queries match against a single field (title, author, subject, tags,
// readers, readings, full text) or against every metadata field at once.
// Results can be restricted to a shelf, including the virtual Unsorted
// shelf, and sorted by upload time, title or page count.
package search
