package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/models"
)

// ProfileRepository stores profile items under the owning user's partition
// key, SK=PROFILE.
type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewProfileRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{UserID: userID}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: profile.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: profile.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get profile from DynamoDB")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if result.Item == nil {
		return nil, nil // Profile not written yet
	}

	var dbProfile models.Profile
	if err := attributevalue.UnmarshalMap(result.Item, &dbProfile); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal profile from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &dbProfile, nil
}

// Upsert writes the whole profile item; the first write creates it.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal profile for DynamoDB")
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: profile.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: profile.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to store profile in DynamoDB")
		return fmt.Errorf("failed to store profile: %w", err)
	}

	return nil
}
