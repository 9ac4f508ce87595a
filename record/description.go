package record

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// OriginalGrouping is the user grouping populated from description file groups.
const OriginalGrouping = "Original Level 1"

// Description is the parsed content of a description file.
type Description struct {
	// Records in file order, with mutual matches.
	Records []Record
	// Repaired counts matches that were added to make match lists mutual.
	Repaired int
	// ByLevel assigns the i-th group of a record to OriginalLevel(i)
	// instead of assigning every group to OriginalGrouping.
	ByLevel bool
}

// ParseDescription reads a description file.
//
// Each non-blank line has the form
//
//	ID; (group_1, group_2); (match_1, match_2); type_1: file_1; ...
//
// Groups and matches may be empty ("()"). File items are split at their
// first colon so references may contain colons themselves. A match naming
// an identifier that is not defined in the file fails with ErrUnknownRecord.
func ParseDescription(r io.Reader) (*Description, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	d := &Description{}
	lines := make(map[string]int)

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &LineError{Line: pe.Line, Reason: pe.Err.Error(), Err: ErrMalformedDescription}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseDescriptionLine(fields, line)
		if err != nil {
			return nil, err
		}
		if prev, dup := lines[rec.ID]; dup {
			return nil, &LineError{
				Line:   line,
				ID:     rec.ID,
				Reason: fmt.Sprintf("already defined on line %d", prev),
				Err:    ErrDuplicateRecord,
			}
		}
		lines[rec.ID] = line
		d.Records = append(d.Records, rec)
	}

	if err := d.makeMutual(lines); err != nil {
		return nil, err
	}
	return d, nil
}

func parseDescriptionLine(fields []string, line int) (Record, error) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 3 {
		return Record{}, &LineError{
			Line:   line,
			Reason: fmt.Sprintf("expected at least 3 fields, got %d", len(fields)),
			Err:    ErrMalformedDescription,
		}
	}
	id := fields[0]
	if id == "" {
		return Record{}, &LineError{Line: line, Reason: "missing identifier", Err: ErrMalformedDescription}
	}

	rec := Record{
		ID:      id,
		Groups:  parseList(fields[1]),
		Matches: parseList(fields[2]),
	}

	for _, item := range fields[3:] {
		if item == "" {
			continue
		}
		dataType, ref, ok := strings.Cut(item, ":")
		if !ok {
			return Record{}, &LineError{
				Line:   line,
				ID:     id,
				Reason: fmt.Sprintf("file item %q has no data type", item),
				Err:    ErrMalformedDescription,
			}
		}
		dataType = strings.TrimSpace(dataType)
		ref = strings.TrimSpace(ref)
		if dataType == "" {
			return Record{}, &LineError{Line: line, ID: id, Reason: "empty data type", Err: ErrMalformedDescription}
		}
		if ref == "" {
			continue
		}
		if rec.Files == nil {
			rec.Files = make(map[string]string)
		}
		if _, dup := rec.Files[dataType]; dup {
			return Record{}, &LineError{
				Line:   line,
				ID:     id,
				Reason: fmt.Sprintf("data type %q listed twice", dataType),
				Err:    ErrMalformedDescription,
			}
		}
		rec.Files[dataType] = ref
	}

	return rec, nil
}

// parseList parses "(a, b, c)" into its trimmed, non-empty items.
func parseList(s string) []string {
	s = strings.NewReplacer("(", "", ")", "").Replace(s)
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (d *Description) makeMutual(lines map[string]int) error {
	pos := make(map[string]int, len(d.Records))
	for i, r := range d.Records {
		pos[r.ID] = i
	}

	for i := range d.Records {
		rec := &d.Records[i]
		for _, m := range rec.Matches {
			j, ok := pos[m]
			if !ok {
				return &LineError{
					Line:   lines[rec.ID],
					ID:     rec.ID,
					Reason: fmt.Sprintf("match %q is not defined", m),
					Err:    ErrUnknownRecord,
				}
			}
			other := &d.Records[j]
			if !slices.Contains(other.Matches, rec.ID) {
				other.Matches = append(other.Matches, rec.ID)
				d.Repaired++
			}
		}
	}
	return nil
}

// Insert adds the described records to idx and assigns their groups to the
// OriginalGrouping of gs, or to the OriginalLevel groupings when ByLevel is
// set (gs may be nil). Records whose identifier is
// already present are left untouched and reported in duplicates.
func (d *Description) Insert(idx *Index, gs *Groupings) (added int, duplicates []string, err error) {
	var original *Grouping
	if gs != nil && !d.ByLevel {
		original = gs.User(OriginalGrouping)
	}
	for _, rec := range d.Records {
		h, inserted, err := idx.Add(rec)
		if err != nil {
			return added, duplicates, err
		}
		if !inserted {
			duplicates = append(duplicates, rec.ID)
			continue
		}
		added++
		switch {
		case gs == nil:
		case d.ByLevel:
			for level, g := range rec.Groups {
				gs.User(OriginalLevel(level)).Assign(g, h)
			}
		default:
			for _, g := range rec.Groups {
				original.Assign(g, h)
			}
		}
	}
	return added, duplicates, nil
}

// WriteDescription writes every record of idx in description file format,
// in handle order. File items are sorted by data type.
func WriteDescription(w io.Writer, idx *Index) error {
	bw := bufio.NewWriter(w)
	for _, r := range idx.All() {
		elems := []string{
			r.ID,
			"(" + strings.Join(r.Groups, ", ") + ")",
			"(" + strings.Join(r.Matches, ", ") + ")",
		}
		for _, t := range r.DataTypes() {
			elems = append(elems, t+": "+r.Files[t])
		}
		if _, err := bw.WriteString(strings.Join(elems, "; ") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
