package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/support-role-api/internal/domain"
)

// TransitionRepo is the append-only audit log of guard decisions.
// PK: transition_id (ULID); per-user history via the user_id-created_at GSI.
type TransitionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTransitionRepo(client *dynamodb.Client, tableName string) *TransitionRepo {
	return &TransitionRepo{client: client, tableName: tableName}
}

func (r *TransitionRepo) Put(ctx context.Context, t *domain.RoleTransition) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal role transition: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByUser returns up to limit transitions for the user, newest first.
func (r *TransitionRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.RoleTransition, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var transitions []domain.RoleTransition
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &transitions); err != nil {
		return nil, err
	}
	return transitions, nil
}
