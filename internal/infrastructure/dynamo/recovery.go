package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/support-role-api/internal/domain"
)

// RecoveryRepo stores password recovery OTPs. PK: user_id.
// expires_at is a DynamoDB TTL attribute, so stale codes age out on their own.
type RecoveryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecoveryRepo(client *dynamodb.Client, tableName string) *RecoveryRepo {
	return &RecoveryRepo{client: client, tableName: tableName}
}

func (r *RecoveryRepo) Put(ctx context.Context, otp *domain.RecoveryOTP) error {
	item, err := attributevalue.MarshalMap(otp)
	if err != nil {
		return fmt.Errorf("marshal recovery OTP: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RecoveryRepo) Get(ctx context.Context, userID string) (*domain.RecoveryOTP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("recovery OTP not found: %w", domain.ErrNotFound)
	}
	var otp domain.RecoveryOTP
	if err := attributevalue.UnmarshalMap(out.Item, &otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *RecoveryRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}
