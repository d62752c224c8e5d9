// Package dynamodb keeps saved graphs in a DynamoDB table for hosted
// deployments.
package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/utils"
)

// MaxPayloadBytes keeps an item under the 400 KB DynamoDB limit with room
// for the other attributes.
const MaxPayloadBytes = 380 * 1024

// API is the subset of the DynamoDB client the store uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// SnapshotStore implements ports.SnapshotStore on a single table keyed by
// workspace (PK) and snapshot name (SK)
type SnapshotStore struct {
	client    API
	tableName string
	workspace string
	logger    *zap.Logger
	now       func() time.Time
}

// NewSnapshotStore creates a store writing under workspace
func NewSnapshotStore(client API, tableName, workspace string, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workspace == "" {
		workspace = "default"
	}
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		workspace: workspace,
		logger:    logger,
		now:       time.Now,
	}
}

// snapshotItem represents the DynamoDB item structure for a snapshot
type snapshotItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Name       string `dynamodbav:"Name"`
	Payload    []byte `dynamodbav:"Payload,omitempty"`
	SavedAt    string `dynamodbav:"SavedAt"`
	Version    string `dynamodbav:"Version"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	Language   string `dynamodbav:"Language"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func (s *SnapshotStore) pk() string {
	return fmt.Sprintf("WORKSPACE#%s", s.workspace)
}

func sk(name string) string {
	return fmt.Sprintf("SNAPSHOT#%s", name)
}

// Save stores payload under name, replacing an existing snapshot
func (s *SnapshotStore) Save(ctx context.Context, name string, payload []byte, info ports.SnapshotInfo) error {
	if name == "" {
		return pkgerrors.NewValidationError("snapshot name is required")
	}
	if len(payload) > MaxPayloadBytes {
		return pkgerrors.NewValidationError(fmt.Sprintf(
			"snapshot is %d bytes, the table accepts at most %d", len(payload), MaxPayloadBytes))
	}

	item := snapshotItem{
		PK:         s.pk(),
		SK:         sk(name),
		EntityType: "SNAPSHOT",
		Name:       name,
		Payload:    payload,
		SavedAt:    utils.FormatISO(info.SavedAt),
		Version:    info.Version,
		NodeCount:  info.NodeCount,
		EdgeCount:  info.EdgeCount,
		Language:   info.Language,
		UpdatedAt:  utils.FormatISO(s.now()),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to save snapshot to DynamoDB",
			zap.Error(err),
			zap.String("name", name),
		)
		return pkgerrors.NewDatabaseError("save snapshot", err)
	}

	s.logger.Info("Saved snapshot to DynamoDB",
		zap.String("PK", item.PK),
		zap.String("SK", item.SK),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Load returns the payload stored under name
func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.pk()},
			"SK": &types.AttributeValueMemberS{Value: sk(name)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load snapshot", err)
	}
	if len(result.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("snapshot " + name)
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return item.Payload, nil
}

// List returns all snapshots of the workspace, newest first. Payloads are
// not read.
func (s *SnapshotStore) List(ctx context.Context) ([]ports.SnapshotSummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(s.pk())).
		And(expression.Key("SK").BeginsWith("SNAPSHOT#"))
	proj := expression.NamesList(
		expression.Name("Name"),
		expression.Name("SavedAt"),
		expression.Name("Version"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("Language"),
	)
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithProjection(proj).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var out []ports.SnapshotSummary
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list snapshots", err)
		}

		for _, raw := range result.Items {
			var item snapshotItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("Failed to unmarshal snapshot item", zap.Error(err))
				continue
			}
			savedAt, _ := utils.ParseISO(item.SavedAt)
			out = append(out, ports.SnapshotSummary{
				Name: item.Name,
				SnapshotInfo: ports.SnapshotInfo{
					SavedAt:   savedAt,
					Version:   item.Version,
					NodeCount: item.NodeCount,
					EdgeCount: item.EdgeCount,
					Language:  item.Language,
				},
			})
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
