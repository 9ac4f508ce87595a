package record

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
)

// DataType describes how the files of one data type are named.
type DataType struct {
	Name string
	// Formats are file name patterns without extension. "*" stands for the
	// record identifier or any other run of characters. Empty means "*".
	Formats []string
	// Extensions such as ".png", compared case-insensitively.
	Extensions []string
}

// DefaultDataTypes are the data types used when none are configured.
var DefaultDataTypes = []DataType{
	{Name: "Image", Formats: []string{"*"}, Extensions: []string{".jpg", ".png", ".tif"}},
	{Name: "Segmentation", Formats: []string{"*_segmentation", "*_mask", "*_seg"}, Extensions: []string{".jpg", ".png", ".tif"}},
	{Name: "Curve", Formats: []string{"*"}, Extensions: []string{".txt"}},
}

// OriginalLevel returns the name of the user grouping holding the folder
// groups found at the 0-based level.
func OriginalLevel(level int) string {
	return fmt.Sprintf("Original Level %d", level+1)
}

type fileFormat struct {
	typ     string
	exts    []string
	pattern string
	literal string
	re      *regexp.Regexp
}

// FromListing builds records from the slash-separated paths of a file
// tree, relative to its root.
//
// Every folder level of a path is a group, a data type or, with
// idsInFolders, the record identifier. A folder is a data type when it is
// named after one, optionally with a trailing "s". With idsInFolders a
// folder is the identifier when it is the last folder or only data type
// folders follow it. Otherwise the data type and identifier come from the
// file name: the longest matching format of a data type accepting the
// extension wins and its literal part is cut from the name.
//
// Records whose identifiers repeat across groups of the same depth are
// renamed to group_ID, using the first level where their groups differ.
// The groups of the returned records are assigned by level.
func FromListing(names []string, types []DataType, idsInFolders bool) (*Description, error) {
	if types == nil {
		types = DefaultDataTypes
	}
	names = slices.DeleteFunc(slices.Clone(names), func(n string) bool {
		return n == "" || strings.HasSuffix(n, "/")
	})
	formats, err := compileFormats(types)
	if err != nil {
		return nil, err
	}
	if err := checkLevels(names); err != nil {
		return nil, err
	}

	l := &listing{
		typeNames: make(map[string]bool, len(types)),
		pos:       make(map[string]int),
		idLevel:   -1,
	}
	for _, t := range types {
		l.typeNames[t.Name] = true
	}

	for _, name := range names {
		if err := l.add(name, formats, idsInFolders); err != nil {
			return nil, err
		}
	}
	return &Description{Records: l.records, ByLevel: true}, nil
}

type listing struct {
	typeNames map[string]bool
	records   []Record
	pos       map[string]int
	// idLevel is the group level prefixed to identifiers, or -1.
	idLevel int
}

func (l *listing) dataTypeFolder(folder string) (string, bool) {
	if l.typeNames[folder] {
		return folder, true
	}
	if trimmed, ok := strings.CutSuffix(folder, "s"); ok && l.typeNames[trimmed] {
		return trimmed, true
	}
	return "", false
}

func (l *listing) add(name string, formats []fileFormat, idsInFolders bool) error {
	dir, file := path.Split(name)
	folders := strings.Split(strings.Trim(dir, "/"), "/")
	if dir == "" {
		folders = nil
	}

	var dtype, id string
	var groups []string
	for level, folder := range folders {
		if t, ok := l.dataTypeFolder(folder); ok {
			dtype = t
			continue
		}
		if idsInFolders && (level == len(folders)-1 || l.onlyTypesAfter(folders[level+1:])) {
			id = folder
			continue
		}
		groups = append(groups, folder)
	}

	if dtype == "" || id == "" {
		f, ok := bestFormat(file, formats)
		if !ok {
			return &PathError{Path: name, Reason: "no data type matches the file name", Err: ErrUnmatchedFile}
		}
		if dtype == "" {
			dtype = f.typ
		}
		if id == "" {
			id = stem(file)
			if f.literal != "" {
				id = strings.ReplaceAll(id, f.literal, "")
			}
		}
	}
	if id == "" {
		return &PathError{Path: name, Reason: "empty record identifier", Err: ErrUnmatchedFile}
	}
	if len(groups) == 0 {
		return &PathError{Path: name, Reason: "no group folder", Err: ErrUnmatchedFile}
	}

	if l.idLevel >= 0 && l.idLevel < len(groups) {
		id = groups[l.idLevel] + "_" + id
	}
	i, ok := l.pos[id]
	if !ok {
		l.append(id, groups, dtype, name)
		return nil
	}
	existing := &l.records[i]
	if l.idLevel >= 0 || len(existing.Groups) != len(groups) {
		existing.Files[dtype] = name
		return nil
	}
	for level, g := range existing.Groups {
		if g != groups[level] {
			l.renameAt(level)
			l.append(groups[level]+"_"+id, groups, dtype, name)
			return nil
		}
	}
	existing.Files[dtype] = name
	return nil
}

func (l *listing) onlyTypesAfter(folders []string) bool {
	for _, f := range folders {
		if _, ok := l.dataTypeFolder(f); !ok {
			return false
		}
	}
	return true
}

func (l *listing) append(id string, groups []string, dtype, file string) {
	l.pos[id] = len(l.records)
	l.records = append(l.records, Record{
		ID:     id,
		Groups: groups,
		Files:  map[string]string{dtype: file},
	})
}

// renameAt prefixes every identifier with its group at level.
func (l *listing) renameAt(level int) {
	l.idLevel = level
	clear(l.pos)
	for i := range l.records {
		r := &l.records[i]
		if level < len(r.Groups) {
			r.ID = r.Groups[level] + "_" + r.ID
		}
		l.pos[r.ID] = i
	}
}

// checkLevels rejects folders that hold both files and subfolders.
func checkLevels(names []string) error {
	hasDirs := make(map[string]bool)
	hasFiles := make(map[string]string)
	for _, name := range names {
		dir := path.Dir(name)
		if _, ok := hasFiles[dir]; !ok {
			hasFiles[dir] = name
		}
		for dir != "." && dir != "/" {
			parent := path.Dir(dir)
			hasDirs[parent] = true
			dir = parent
		}
	}
	dirs := make([]string, 0, len(hasFiles))
	for dir := range hasFiles {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	for _, dir := range dirs {
		if hasDirs[dir] {
			return &PathError{Path: hasFiles[dir], Reason: "file is next to folders", Err: ErrMixedLevels}
		}
	}
	return nil
}

func compileFormats(types []DataType) ([]fileFormat, error) {
	for i, t := range types {
		for _, prev := range types[:i] {
			if overlaps(t.Extensions, prev.Extensions, strings.ToLower) && overlaps(formatsOf(t), formatsOf(prev), strings.TrimSpace) {
				return nil, fmt.Errorf("%w: %s and %s", ErrAmbiguousDataTypes, prev.Name, t.Name)
			}
		}
	}

	var out []fileFormat
	for _, t := range types {
		for _, f := range formatsOf(t) {
			f = strings.ReplaceAll(f, " ", "")
			parts := strings.Split(f, "*")
			for i, p := range parts {
				parts[i] = regexp.QuoteMeta(p)
			}
			re, err := regexp.Compile("^" + strings.Join(parts, ".*"))
			if err != nil {
				return nil, fmt.Errorf("record: data type %s: %w", t.Name, err)
			}
			out = append(out, fileFormat{
				typ:     t.Name,
				exts:    t.Extensions,
				pattern: f,
				literal: strings.ReplaceAll(f, "*", ""),
				re:      re,
			})
		}
	}
	return out, nil
}

func formatsOf(t DataType) []string {
	if len(t.Formats) == 0 {
		return []string{"*"}
	}
	return t.Formats
}

func overlaps(a, b []string, norm func(string) string) bool {
	for _, x := range a {
		for _, y := range b {
			if norm(x) == norm(y) {
				return true
			}
		}
	}
	return false
}

// bestFormat returns the longest format matching file among the data types
// accepting its extension. Earlier data types win ties.
func bestFormat(file string, formats []fileFormat) (fileFormat, bool) {
	lower := strings.ToLower(file)
	name := stem(file)

	var best fileFormat
	found := false
	for _, f := range formats {
		if !slices.ContainsFunc(f.exts, func(ext string) bool {
			return ext != "" && strings.HasSuffix(lower, strings.ToLower(ext))
		}) {
			continue
		}
		if !f.re.MatchString(name) {
			continue
		}
		if !found || len(f.pattern) > len(best.pattern) {
			best, found = f, true
		}
	}
	return best, found
}

func stem(file string) string {
	if i := strings.LastIndex(file, "."); i >= 0 {
		return file[:i]
	}
	return file
}
