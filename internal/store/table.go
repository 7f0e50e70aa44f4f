// Package store reads and writes movies in a DynamoDB table.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dannyrandall/movies/internal/movies"
)

var (
	ErrNoTable  = errors.New("table name is not set")
	ErrNotFound = errors.New("movie not found")
)

// DynamoAPI is the part of *dynamodb.Client used by Table.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type Table struct {
	Dynamo DynamoAPI
	Name   string
}

func (t *Table) Put(ctx context.Context, movie movies.Movie) error {
	if t.Name == "" {
		return ErrNoTable
	}

	av, err := attributevalue.MarshalMap(movie)
	if err != nil {
		return fmt.Errorf("marshal movie: %w", err)
	}

	_, err = t.Dynamo.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(t.Name),
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}

	return nil
}

func (t *Table) Get(ctx context.Context, id string) (movies.Movie, error) {
	if t.Name == "" {
		return movies.Movie{}, ErrNoTable
	}

	result, err := t.Dynamo.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.Name),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	switch {
	case err != nil:
		return movies.Movie{}, fmt.Errorf("get item: %w", err)
	case result.Item == nil:
		return movies.Movie{}, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}

	var movie movies.Movie
	if err := attributevalue.UnmarshalMap(result.Item, &movie); err != nil {
		return movies.Movie{}, fmt.Errorf("unmarshal result: %w", err)
	}

	return movie, nil
}
