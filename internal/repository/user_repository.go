package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/models"
)

// ErrEmailTaken is returned when a create or email change collides with an
// existing email-uniqueness item.
var ErrEmailTaken = errors.New("email already taken")

type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get user from DynamoDB")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if result.Item == nil {
		return nil, nil // User not found
	}

	var dbUser models.User
	if err := attributevalue.UnmarshalMap(result.Item, &dbUser); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal user from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &dbUser, nil
}

// GetByEmail resolves the email-uniqueness item to a user id, then loads the
// user item.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.EmailKey(email)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get email item from DynamoDB")
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	userID, ok := result.Item["user_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("email item missing user_id")
	}

	return r.GetByID(ctx, userID.Value)
}

// Create writes the user item and its email-uniqueness item in one
// transaction; either condition failing means the id or email is taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal user for DynamoDB")
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item: map[string]types.AttributeValue{
						"PK":      &types.AttributeValueMemberS{Value: models.EmailKey(user.Email)},
						"SK":      &types.AttributeValueMemberS{Value: "METADATA"},
						"user_id": &types.AttributeValueMemberS{Value: user.ID},
					},
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})

	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return ErrEmailTaken
		}
		r.logger.WithError(err).Error("Failed to create user in DynamoDB")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update persists name and email changes. An email change swaps the
// uniqueness item in the same transaction, so a taken address rolls the
// whole update back.
func (r *UserRepository) Update(ctx context.Context, user *models.User, previousEmail string) error {
	user.UpdatedAt = time.Now()

	if user.Email == previousEmail {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
				"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
			},
			UpdateExpression: aws.String("SET #name = :name, updated_at = :updated_at"),
			ExpressionAttributeNames: map[string]string{
				"#name": "name",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":name":       &types.AttributeValueMemberS{Value: user.Name},
				":updated_at": &types.AttributeValueMemberS{Value: user.UpdatedAt.Format(time.RFC3339)},
			},
		})

		if err != nil {
			r.logger.WithError(err).Error("Failed to update user in DynamoDB")
			return fmt.Errorf("failed to update user: %w", err)
		}

		return nil
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
						"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
					},
					UpdateExpression: aws.String("SET #name = :name, email = :email, updated_at = :updated_at"),
					ExpressionAttributeNames: map[string]string{
						"#name": "name",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":name":       &types.AttributeValueMemberS{Value: user.Name},
						":email":      &types.AttributeValueMemberS{Value: user.Email},
						":updated_at": &types.AttributeValueMemberS{Value: user.UpdatedAt.Format(time.RFC3339)},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item: map[string]types.AttributeValue{
						"PK":      &types.AttributeValueMemberS{Value: models.EmailKey(user.Email)},
						"SK":      &types.AttributeValueMemberS{Value: "METADATA"},
						"user_id": &types.AttributeValueMemberS{Value: user.ID},
					},
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: models.EmailKey(previousEmail)},
						"SK": &types.AttributeValueMemberS{Value: "METADATA"},
					},
				},
			},
		},
	})

	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return ErrEmailTaken
		}
		r.logger.WithError(err).Error("Failed to update user in DynamoDB")
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete removes the user item, its profile item and the email-uniqueness
// item.
func (r *UserRepository) Delete(ctx context.Context, user *models.User) error {
	profile := &models.Profile{UserID: user.ID}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
						"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
					},
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: profile.GetPK()},
						"SK": &types.AttributeValueMemberS{Value: profile.GetSK()},
					},
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: models.EmailKey(user.Email)},
						"SK": &types.AttributeValueMemberS{Value: "METADATA"},
					},
				},
			},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to delete user from DynamoDB")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// List scans user items. Good enough for a boilerplate admin listing; a GSI
// would replace the scan under real load.
func (r *UserRepository) List(ctx context.Context, limit int32) ([]models.User, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk_prefix) AND SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk_prefix": &types.AttributeValueMemberS{Value: "USER#"},
			":sk":        &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(limit),
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to list users from DynamoDB")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []models.User
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	return users, nil
}
