package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apanazar/WGE/application/ports"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// fakeTable stores items by PK and SK and pages queries one item at a time.
type fakeTable struct {
	items   map[string]map[string]types.AttributeValue
	queries int
	failPut error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(item map[string]types.AttributeValue) string {
	return item["PK"].(*types.AttributeValueMemberS).Value + "|" + item["SK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries++
	var pk, prefix string
	for _, v := range in.ExpressionAttributeValues {
		s := v.(*types.AttributeValueMemberS).Value
		if strings.HasPrefix(s, "WORKSPACE#") {
			pk = s
		} else {
			prefix = s
		}
	}

	var keys []string
	for k := range f.items {
		if strings.HasPrefix(k, pk+"|"+prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := keyOf(in.ExclusiveStartKey)
		for start < len(keys) && keys[start] <= after {
			start++
		}
	}
	if start >= len(keys) {
		return &dynamodb.QueryOutput{}, nil
	}

	item := make(map[string]types.AttributeValue)
	for k, v := range f.items[keys[start]] {
		if k != "Payload" {
			item[k] = v
		}
	}
	out := &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}
	if start+1 < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]}
	}
	return out, nil
}

func snapshotInfo(day int) ports.SnapshotInfo {
	return ports.SnapshotInfo{
		SavedAt:   time.Date(2024, 5, day, 18, 0, 0, 0, time.UTC),
		Version:   "3.2",
		NodeCount: day,
		EdgeCount: day * 2,
		Language:  "de",
	}
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	// Arrange
	table := newFakeTable()
	store := NewSnapshotStore(table, "snapshots", "alice", nil)
	ctx := context.Background()
	payload := []byte(`{"nodes":[],"edges":[]}`)

	// Act
	require.NoError(t, store.Save(ctx, "trip", payload, snapshotInfo(3)))
	got, err := store.Load(ctx, "trip")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Contains(t, table.items, "WORKSPACE#alice|SNAPSHOT#trip")
}

func TestSnapshotStore_ListPagesAndSorts(t *testing.T) {
	// Arrange
	table := newFakeTable()
	store := NewSnapshotStore(table, "snapshots", "", nil)
	other := NewSnapshotStore(table, "snapshots", "bob", nil)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", []byte("1"), snapshotInfo(1)))
	require.NoError(t, store.Save(ctx, "b", []byte("2"), snapshotInfo(9)))
	require.NoError(t, store.Save(ctx, "c", []byte("3"), snapshotInfo(4)))
	require.NoError(t, other.Save(ctx, "private", []byte("4"), snapshotInfo(7)))

	// Act
	list, err := store.List(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, table.queries)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, snapshotInfo(9), list[0].SnapshotInfo)
}

func TestSnapshotStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := NewSnapshotStore(newFakeTable(), "t", "w", nil).Load(ctx, "nope")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("oversized payload", func(t *testing.T) {
		table := newFakeTable()
		err := NewSnapshotStore(table, "t", "w", nil).Save(ctx, "big", make([]byte, MaxPayloadBytes+1), snapshotInfo(1))
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Empty(t, table.items)
	})

	t.Run("put failure", func(t *testing.T) {
		table := newFakeTable()
		table.failPut = errors.New("throttled")
		err := NewSnapshotStore(table, "t", "w", nil).Save(ctx, "x", []byte("1"), snapshotInfo(1))
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	})
}
