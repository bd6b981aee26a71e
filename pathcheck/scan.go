// Copyright 2026 RetailNext, Inc.
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

package pathcheck

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Group is one batch unit: a folder's worth of image files, uploaded together
// and eligible for a shared gallery.
type Group struct {
	Name  string
	Paths []string
}

const miscGroupName = "Miscellaneous"

// ScanInputs expands a mixed list of files and directories into groups of
// candidate image paths. Directories become one group each, named after the
// folder; loose files are collected into a trailing "Miscellaneous" group.
// Candidates are filtered by extension only; full validation happens later.
func (v *Validator) ScanInputs(inputs []string) []Group {
	var groups []Group
	var miscFiles []string

	for _, input := range inputs {
		if isDirectory(input) {
			name := filepath.Base(strings.TrimRight(input, string(filepath.Separator)))
			var files []string
			_ = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if v.hasAllowedExtension(path) {
					files = append(files, path)
				}
				return nil
			})
			if len(files) > 0 {
				sortNatural(files)
				groups = append(groups, Group{Name: name, Paths: files})
			}
		} else if v.hasAllowedExtension(input) {
			miscFiles = append(miscFiles, input)
		}
	}

	if len(miscFiles) > 0 {
		sortNatural(miscFiles)
		groups = append(groups, Group{Name: miscGroupName, Paths: miscFiles})
	}
	return groups
}

func (v *Validator) hasAllowedExtension(path string) bool {
	_, ok := v.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func sortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return naturalLess(paths[i], paths[j])
	})
}

// naturalLess orders embedded digit runs numerically, so "img2" sorts before
// "img10".
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		aTok, aNum, aRest := nextToken(a)
		bTok, bNum, bRest := nextToken(b)
		if aNum && bNum {
			if aTok != bTok {
				// Compare digit runs by length first, then lexically; leading
				// zeros are trimmed so this matches numeric order.
				at := strings.TrimLeft(aTok, "0")
				bt := strings.TrimLeft(bTok, "0")
				if len(at) != len(bt) {
					return len(at) < len(bt)
				}
				if at != bt {
					return at < bt
				}
			}
		} else {
			al := strings.ToLower(aTok)
			bl := strings.ToLower(bTok)
			if al != bl {
				return al < bl
			}
		}
		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

func nextToken(s string) (tok string, isNum bool, rest string) {
	isNum = s[0] >= '0' && s[0] <= '9'
	i := 1
	for i < len(s) {
		d := s[i] >= '0' && s[i] <= '9'
		if d != isNum {
			break
		}
		i++
	}
	return s[:i], isNum, s[i:]
}
