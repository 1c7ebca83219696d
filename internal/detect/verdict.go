package detect

import (
	"encoding/json"
	"fmt"
)

type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

type DiffKind string

const (
	DiffItemCount DiffKind = "itemCount"
	DiffText      DiffKind = "text"
)

// Segment is one run of a word-level diff. Added and Removed are mutually
// exclusive; both false means the run is common to both sides.
type Segment struct {
	Value   string `json:"value"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// DiffData is a tagged union: exactly one of the item-count fields or the
// segment list is meaningful, selected by Kind.
type DiffData struct {
	Kind     DiffKind
	Before   int
	After    int
	Segments []Segment
}

// Content is one side of a comparison: the extracted element at a point in
// time. A nil ItemCount means the element is not list-shaped; zero is a
// valid empty list.
type Content struct {
	HTMLContent string
	TextContent string
	ItemCount   *int
}

// Verdict is the result of comparing two Contents.
type Verdict struct {
	HasChanged bool
	ChangeType ChangeType
	Summary    string
	Diff       *DiffData
}

type itemCountJSON struct {
	Type   DiffKind `json:"type"`
	Before int      `json:"before"`
	After  int      `json:"after"`
}

type textJSON struct {
	Type DiffKind  `json:"type"`
	Diff []Segment `json:"diff"`
}

func (d DiffData) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DiffItemCount:
		return json.Marshal(itemCountJSON{Type: DiffItemCount, Before: d.Before, After: d.After})
	case DiffText:
		return json.Marshal(textJSON{Type: DiffText, Diff: d.Segments})
	default:
		return nil, fmt.Errorf("unknown diff kind: %q", d.Kind)
	}
}

func (d *DiffData) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type DiffKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case DiffItemCount:
		var v itemCountJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*d = DiffData{Kind: DiffItemCount, Before: v.Before, After: v.After}
		return nil
	case DiffText:
		var v textJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*d = DiffData{Kind: DiffText, Segments: v.Diff}
		return nil
	default:
		return fmt.Errorf("unknown diff kind: %q", tag.Type)
	}
}
