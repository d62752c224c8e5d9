// Package schema reads and writes the saved graph document.
//
// A document is a JSON object with "nodes", "edges" and "metadata". Node
// fields the engine does not model (color, shape, icon and anything added
// by newer versions) are carried through as opaque attributes, so a
// load/save cycle never loses data.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/domain/core/aggregates"
	"github.com/Apanazar/WGE/domain/core/entities"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/utils"
)

const invalidFile = "Invalid graph file"

// Codec implements ports.GraphCodec for the JSON document format
type Codec struct {
	cfg       *config.DomainConfig
	evolution *SchemaEvolution
	logger    *zap.Logger
	now       func() time.Time
}

// NewCodec creates a codec writing cfg.SchemaVersion documents
func NewCodec(cfg *config.DomainConfig, logger *zap.Logger) *Codec {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{
		cfg:       cfg,
		evolution: DefaultSchemaEvolution(cfg.SchemaVersion),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for savedAt
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

type metadata struct {
	SavedAt   string `json:"savedAt"`
	Version   string `json:"version"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
	Language  string `json:"language"`
}

type document struct {
	Nodes    []map[string]interface{} `json:"nodes"`
	Edges    []map[string]interface{} `json:"edges"`
	Metadata metadata                 `json:"metadata"`
}

// Encode serializes graph. Nodes are written in id order and edges in
// insertion order.
func (c *Codec) Encode(graph *aggregates.Graph, language string) ([]byte, ports.SnapshotInfo, error) {
	if graph == nil {
		return nil, ports.SnapshotInfo{}, pkgerrors.NewValidationError("graph is required")
	}

	nodes := graph.Nodes()
	edges := graph.Edges()
	savedAt := c.now()

	doc := document{
		Nodes: make([]map[string]interface{}, 0, len(nodes)),
		Edges: make([]map[string]interface{}, 0, len(edges)),
		Metadata: metadata{
			SavedAt:   utils.FormatISO(savedAt),
			Version:   c.cfg.SchemaVersion,
			NodeCount: len(nodes),
			EdgeCount: len(edges),
			Language:  language,
		},
	}
	for _, node := range nodes {
		doc.Nodes = append(doc.Nodes, encodeNode(node.Record()))
	}
	for _, edge := range edges {
		doc.Edges = append(doc.Edges, encodeEdge(edge))
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, ports.SnapshotInfo{}, fmt.Errorf("failed to marshal graph: %w", err)
	}

	info := ports.SnapshotInfo{
		SavedAt:   savedAt,
		Version:   c.cfg.SchemaVersion,
		NodeCount: len(nodes),
		EdgeCount: len(edges),
		Language:  language,
	}
	return payload, info, nil
}

// FileName returns the dated download name, e.g. wiki-graph-2024-03-01.json
func (c *Codec) FileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.json", c.cfg.FileNamePrefix, t.UTC().Format("2006-01-02"))
}

// Decode parses payload into a new graph. Nothing outside the returned
// graph is touched, so callers can discard it on error.
func (c *Codec) Decode(payload []byte) (*aggregates.Graph, ports.SnapshotInfo, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return nil, ports.SnapshotInfo{}, err
	}
	savedVersion := doc.Version

	applied, err := c.evolution.Upgrade(doc)
	if err != nil {
		return nil, ports.SnapshotInfo{}, pkgerrors.NewInvalidFormatError(invalidFile).WithCause(err)
	}
	if len(applied) > 0 {
		c.logger.Info("Upgraded graph document",
			zap.String("from", savedVersion),
			zap.String("to", doc.Version),
			zap.Strings("migrations", applied))
	}

	graph := aggregates.NewGraph()
	for i, obj := range doc.Nodes {
		rec, err := decodeNode(obj)
		if err != nil {
			return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("node %d", i), err)
		}
		node, err := entities.ReconstructNode(rec)
		if err != nil {
			return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("node %d", i), err)
		}
		if _, err := graph.AddNode(node); err != nil {
			return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("node %d", i), fmt.Errorf("duplicate id %d", rec.ID))
		}
	}

	dropped := 0
	for i, obj := range doc.Edges {
		rec, err := decodeEdge(obj)
		if err != nil {
			return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("edge %d", i), err)
		}
		if c.cfg.DropDanglingEdges && (!graph.HasNode(rec.From) || !graph.HasNode(rec.To)) {
			dropped++
			continue
		}
		if _, err := graph.InsertEdge(rec); err != nil {
			if !pkgerrors.IsConflict(err) {
				return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("edge %d", i), err)
			}
			// Repeated edge id; keep the edge under a fresh one.
			rec.ID = ""
			if _, err := graph.InsertEdge(rec); err != nil {
				return nil, ports.SnapshotInfo{}, invalid(fmt.Sprintf("edge %d", i), err)
			}
		}
	}
	if dropped > 0 {
		c.logger.Warn("Dropped edges with missing endpoints", zap.Int("count", dropped))
	}
	graph.PullEvents()

	info := ports.SnapshotInfo{
		Version:   savedVersion,
		NodeCount: graph.NodeCount(),
		EdgeCount: graph.EdgeCount(),
	}
	if s, ok := stringField(doc.Metadata, "savedAt"); ok {
		if t, err := utils.ParseISO(s); err == nil {
			info.SavedAt = t
		}
	}
	if lang, ok := stringField(doc.Metadata, "language"); ok {
		info.Language = strings.TrimSpace(lang)
	}
	return graph, info, nil
}

func parseDocument(payload []byte) (*rawDocument, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil || top == nil {
		return nil, pkgerrors.NewInvalidFormatError(invalidFile).WithCause(err)
	}

	doc := &rawDocument{Version: LegacyVersion}
	for _, part := range []struct {
		key  string
		into *[]map[string]json.RawMessage
	}{
		{"nodes", &doc.Nodes},
		{"edges", &doc.Edges},
	} {
		raw, ok := top[part.key]
		if !ok || isNull(raw) {
			return nil, pkgerrors.NewInvalidFormatError(invalidFile).
				WithDetails(map[string]interface{}{"missing": part.key})
		}
		if err := json.Unmarshal(raw, part.into); err != nil {
			return nil, invalid(part.key, err)
		}
		for i, obj := range *part.into {
			if obj == nil {
				return nil, invalid(fmt.Sprintf("%s %d", part.key, i), fmt.Errorf("not an object"))
			}
		}
	}

	if raw, ok := top["metadata"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.Metadata); err != nil {
			return nil, invalid("metadata", err)
		}
		if v, ok := stringField(doc.Metadata, "version"); ok && strings.TrimSpace(v) != "" {
			doc.Version = strings.TrimSpace(v)
		}
	}
	return doc, nil
}

func invalid(where string, err error) error {
	return pkgerrors.NewInvalidFormatError(fmt.Sprintf("%s: %s: %v", invalidFile, where, err)).WithCause(err)
}

// fields reads typed values out of a JSON object, remembering which keys
// were consumed and the first type error.
type fields struct {
	obj  map[string]json.RawMessage
	used map[string]bool
	err  error
}

func newFields(obj map[string]json.RawMessage) *fields {
	return &fields{obj: obj, used: make(map[string]bool, len(obj))}
}

func (f *fields) raw(key string) (json.RawMessage, bool) {
	f.used[key] = true
	raw, ok := f.obj[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func (f *fields) decode(key string, into interface{}) bool {
	raw, ok := f.raw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, into); err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("field %q: %w", key, err)
		}
		return false
	}
	return true
}

func (f *fields) str(key string) string {
	var s string
	f.decode(key, &s)
	return s
}

func (f *fields) number(key string) (float64, bool) {
	var n float64
	ok := f.decode(key, &n)
	return n, ok
}

func (f *fields) boolean(key string) bool {
	var b bool
	f.decode(key, &b)
	return b
}

// nodeID accepts integral numbers and numeric strings.
func (f *fields) nodeID(key string) (valueobjects.NodeID, bool) {
	raw, ok := f.raw(key)
	if !ok {
		return valueobjects.UnassignedNodeID, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return valueobjects.UnassignedNodeID, false
		}
		id, err := valueobjects.ParseNodeID(s)
		return id, err == nil
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return valueobjects.UnassignedNodeID, false
	}
	return valueobjects.NodeID(n), true
}

// rest returns every key that was not consumed.
func (f *fields) rest() map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range f.obj {
		if f.used[k] {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

type noticeData struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

func decodeNode(obj map[string]json.RawMessage) (entities.NodeRecord, error) {
	f := newFields(obj)

	id, ok := f.nodeID("id")
	if !ok {
		return entities.NodeRecord{}, fmt.Errorf("id must be a non-negative integer")
	}
	rec := entities.NodeRecord{
		ID:        id,
		Type:      valueobjects.ParseNodeType(f.str("type")),
		Label:     f.str("label"),
		Title:     f.str("title"),
		SourceKey: valueobjects.NewSourceKey(f.str("url")),
	}

	x, hasX := f.number("x")
	y, hasY := f.number("y")
	if hasX || hasY {
		rec.Position = valueobjects.NewPosition(x, y)
	}

	if f.boolean("detached") {
		rec.Detached = true
		var captured []map[string]json.RawMessage
		f.decode("detachedEdges", &captured)
		for _, e := range captured {
			edge, err := decodeEdge(e)
			if err != nil {
				return entities.NodeRecord{}, fmt.Errorf("detached edge: %w", err)
			}
			rec.DetachedEdges = append(rec.DetachedEdges, edge)
		}
	}

	switch {
	case rec.Type == valueobjects.NodeTypeNotice:
		rec.Notice = decodeNotice(f, rec.Label)
	case rec.Type.IsMedia():
		media := valueobjects.MediaPayload{
			Data:      f.str("fileData"),
			FileName:  f.str("fileName"),
			MediaType: f.str("fileType"),
			Thumbnail: f.str("thumbnail"),
		}
		if rec.Type == valueobjects.NodeTypeFile {
			media.Kind = valueobjects.ClassifyFileKind(media.FileName, media.MediaType)
		}
		rec.Media = &media
		if rec.Title == "" {
			rec.Title = media.FileName
		}
	}

	if f.err != nil {
		return entities.NodeRecord{}, f.err
	}
	rec.Attributes = f.rest()
	return rec, nil
}

func decodeNotice(f *fields, label string) *valueobjects.NoticePayload {
	var data noticeData
	if !f.decode("noticeData", &data) {
		return &valueobjects.NoticePayload{Title: label}
	}
	notice := &valueobjects.NoticePayload{Title: data.Title, Body: data.Content}
	if notice.Title == "" {
		notice.Title = label
	}
	if t, err := utils.ParseISO(data.Created); err == nil {
		notice.CreatedAt = t
	}
	if t, err := utils.ParseISO(data.Updated); err == nil {
		notice.UpdatedAt = t
	}
	return notice
}

func decodeEdge(obj map[string]json.RawMessage) (entities.EdgeRecord, error) {
	f := newFields(obj)

	from, okFrom := f.nodeID("from")
	to, okTo := f.nodeID("to")
	if !okFrom || !okTo {
		return entities.EdgeRecord{}, fmt.Errorf("from and to must be node ids")
	}
	rec := entities.EdgeRecord{From: from, To: to}

	if raw, ok := f.raw("id"); ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			rec.ID = valueobjects.EdgeID(s)
		} else {
			var n float64
			if json.Unmarshal(raw, &n) == nil {
				rec.ID = valueobjects.EdgeID(strconv.FormatFloat(n, 'f', -1, 64))
			}
		}
	}

	rec.Attributes = f.rest()
	return rec, nil
}

func encodeNode(rec entities.NodeRecord) map[string]interface{} {
	out := make(map[string]interface{}, len(rec.Attributes)+8)
	for k, v := range rec.Attributes {
		out[k] = v
	}

	out["id"] = rec.ID
	out["label"] = rec.Label
	out["type"] = rec.Type
	if !rec.SourceKey.IsZero() {
		out["url"] = rec.SourceKey
	}
	if rec.Title != "" && rec.Title != rec.Label {
		out["title"] = rec.Title
	}
	if rec.Position != nil {
		out["x"] = rec.Position.X
		out["y"] = rec.Position.Y
	}
	if rec.Detached {
		out["detached"] = true
		captured := make([]map[string]interface{}, 0, len(rec.DetachedEdges))
		for _, e := range rec.DetachedEdges {
			captured = append(captured, encodeEdge(e))
		}
		out["detachedEdges"] = captured
	}

	if n := rec.Notice; n != nil {
		data := noticeData{Title: n.Title, Content: n.Body}
		if !n.CreatedAt.IsZero() {
			data.Created = utils.FormatISO(n.CreatedAt)
		}
		if !n.UpdatedAt.IsZero() {
			data.Updated = utils.FormatISO(n.UpdatedAt)
		}
		out["noticeData"] = data
	}
	if m := rec.Media; m != nil {
		out["fileData"] = m.Data
		out["fileName"] = m.FileName
		out["fileType"] = m.MediaType
		if m.Thumbnail != "" {
			out["thumbnail"] = m.Thumbnail
		}
	}
	return out
}

func encodeEdge(rec entities.EdgeRecord) map[string]interface{} {
	out := make(map[string]interface{}, len(rec.Attributes)+3)
	for k, v := range rec.Attributes {
		out[k] = v
	}
	out["id"] = rec.ID
	out["from"] = rec.From
	out["to"] = rec.To
	return out
}
