package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Apanazar/WGE/domain/core/valueobjects"
)

// LegacyVersion is assumed for documents saved without metadata.
const LegacyVersion = "1.0"

// rawDocument is a saved graph split into untyped objects so that
// migrations can rewrite fields before they are decoded.
type rawDocument struct {
	Version  string
	Nodes    []map[string]json.RawMessage
	Edges    []map[string]json.RawMessage
	Metadata map[string]json.RawMessage
}

// MigrationFunc rewrites a document in place
type MigrationFunc func(doc *rawDocument) error

// Migration upgrades documents older than ToVersion
type Migration struct {
	FromVersion string
	ToVersion   string
	Description string
	Up          MigrationFunc
}

// SchemaEvolution holds the ordered chain of document migrations
type SchemaEvolution struct {
	currentVersion string
	migrations     []Migration
}

// NewSchemaEvolution creates an evolution chain ending at currentVersion
func NewSchemaEvolution(currentVersion string) *SchemaEvolution {
	return &SchemaEvolution{currentVersion: currentVersion}
}

// RegisterMigration adds a migration to the chain
func (s *SchemaEvolution) RegisterMigration(migration Migration) error {
	if compareVersions(migration.FromVersion, migration.ToVersion) >= 0 {
		return fmt.Errorf("invalid migration: from_version must be less than to_version")
	}
	for _, existing := range s.migrations {
		if existing.FromVersion == migration.FromVersion && existing.ToVersion == migration.ToVersion {
			return fmt.Errorf("migration from %s to %s already exists",
				migration.FromVersion, migration.ToVersion)
		}
	}

	s.migrations = append(s.migrations, migration)
	sort.SliceStable(s.migrations, func(i, j int) bool {
		return compareVersions(s.migrations[i].FromVersion, s.migrations[j].FromVersion) < 0
	})
	return nil
}

// CurrentVersion returns the version documents are upgraded to
func (s *SchemaEvolution) CurrentVersion() string {
	return s.currentVersion
}

// Upgrade applies every migration the document has not seen yet and
// returns their descriptions. Documents from newer versions pass through
// untouched.
func (s *SchemaEvolution) Upgrade(doc *rawDocument) ([]string, error) {
	var applied []string
	for _, m := range s.migrations {
		if compareVersions(doc.Version, m.ToVersion) >= 0 {
			continue
		}
		if err := m.Up(doc); err != nil {
			return applied, fmt.Errorf("migration %s->%s failed: %w", m.FromVersion, m.ToVersion, err)
		}
		doc.Version = m.ToVersion
		applied = append(applied, m.Description)
	}
	return applied, nil
}

// DefaultSchemaEvolution returns the migrations for the saved graph format
func DefaultSchemaEvolution(currentVersion string) *SchemaEvolution {
	s := NewSchemaEvolution(currentVersion)
	for _, m := range []Migration{
		{
			FromVersion: LegacyVersion,
			ToVersion:   "3.0",
			Description: "infer missing node types",
			Up:          inferNodeTypes,
		},
		{
			FromVersion: "3.0",
			ToVersion:   "3.2",
			Description: "rename notice fields",
			Up:          renameNoticeFields,
		},
	} {
		if err := s.RegisterMigration(m); err != nil {
			panic(err)
		}
	}
	return s
}

// inferNodeTypes tags nodes written before types were stored.
func inferNodeTypes(doc *rawDocument) error {
	for _, node := range doc.Nodes {
		if t, _ := stringField(node, "type"); strings.TrimSpace(t) != "" {
			continue
		}

		var inferred valueobjects.NodeType
		if u, _ := stringField(node, "url"); strings.TrimSpace(u) != "" {
			inferred = valueobjects.NewSourceKey(u).Classify()
		} else if _, ok := node["noticeData"]; ok {
			inferred = valueobjects.NodeTypeNotice
		} else if _, ok := node["fileData"]; ok {
			mediaType, _ := stringField(node, "fileType")
			inferred = valueobjects.ClassifyUpload(mediaType)
		}
		if inferred == "" {
			continue
		}
		raw, err := json.Marshal(inferred)
		if err != nil {
			return err
		}
		node["type"] = raw
	}
	return nil
}

var noticeRenames = map[string]string{
	"body":      "content",
	"createdAt": "created",
	"updatedAt": "updated",
}

// renameNoticeFields maps early notice keys onto the current ones.
func renameNoticeFields(doc *rawDocument) error {
	for _, node := range doc.Nodes {
		raw, ok := node["noticeData"]
		if !ok || isNull(raw) {
			continue
		}
		var notice map[string]json.RawMessage
		if err := json.Unmarshal(raw, &notice); err != nil {
			return fmt.Errorf("noticeData is not an object: %w", err)
		}
		changed := false
		for from, to := range noticeRenames {
			v, ok := notice[from]
			if !ok {
				continue
			}
			if _, exists := notice[to]; !exists {
				notice[to] = v
			}
			delete(notice, from)
			changed = true
		}
		if !changed {
			continue
		}
		out, err := json.Marshal(notice)
		if err != nil {
			return err
		}
		node["noticeData"] = out
	}
	return nil
}

// compareVersions orders dotted numeric versions. Unparseable parts
// count as zero.
func compareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x, _ = strconv.Atoi(strings.TrimSpace(pa[i]))
		}
		if i < len(pb) {
			y, _ = strconv.Atoi(strings.TrimSpace(pb[i]))
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
