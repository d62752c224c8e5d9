package services

import (
	"encoding/json"
	"fmt"

	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

const attrColor = "color"

type swatch struct {
	background string
	border     string
}

var typeSwatches = map[valueobjects.NodeType]swatch{
	valueobjects.NodeTypeWikipedia: {"#9b59b6", "#8e44ad"},
	valueobjects.NodeTypeWeb:       {"#1abc9c", "#16a085"},
	valueobjects.NodeTypeNotice:    {"#f1c40f", "#f39c12"},
	valueobjects.NodeTypeImage:     {"#e67e22", "#d35400"},
	valueobjects.NodeTypeVideo:     {"#fff", "#e74c3c"},
	valueobjects.NodeTypeFile:      {"#fff", "#3498db"},
}

var (
	rootSwatch     = swatch{"#3498db", "#2980b9"}
	detachedSwatch = swatch{"#e74c3c", "#c0392b"}
	unknownSwatch  = swatch{"#2c3e50", "#34495e"}
)

func (s swatch) attribute() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"background":%q,"border":%q,"highlight":{"background":%q,"border":%q}}`,
		s.background, s.border, s.background, s.border,
	))
}

func colorAttributes(s swatch) map[string]json.RawMessage {
	return map[string]json.RawMessage{attrColor: s.attribute()}
}

// typeColor returns the renderer color for a node type.
func typeColor(t valueobjects.NodeType) map[string]json.RawMessage {
	if s, ok := typeSwatches[t]; ok {
		return colorAttributes(s)
	}
	return colorAttributes(unknownSwatch)
}

// fileColor tints generic files by kind.
func fileColor(kind valueobjects.FileKind) map[string]json.RawMessage {
	return colorAttributes(swatch{"#fff", kind.Color()})
}
