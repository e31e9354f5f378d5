package main

//go:generate mockgen -source=store.go -destination=mock_store_test.go -package=main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IDが衝突したときにPutItemを試行する最大回数
const maxCreateAttempts = 5

// ErrMissingAttribute は更新に必要なフィールドがボディにない場合のエラー
var ErrMissingAttribute = errors.New("missing attribute")

// Item はToDoリストの1件。idは必須、それ以外のフィールドは自由
type Item map[string]interface{}

// DynamoDBAPI は *dynamodb.Client のうちストアが使うメソッド
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ItemStore はハンドラーから呼ばれるCRUD操作
type ItemStore interface {
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, data Item) (Item, error)
	Update(ctx context.Context, id string, data Item) (Item, error)
	Delete(ctx context.Context, id string) (Message, error)
}

// TableStore はDynamoDBの1テーブルに対するItemStoreの実装
type TableStore struct {
	client    DynamoDBAPI
	tableName string
	now       func() time.Time
}

func NewTableStore(client DynamoDBAPI, tableName string) *TableStore {
	return &TableStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

// 主キーを作る
func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{
			Value: id,
		},
	}
}

// DynamoDBアイテムをItemに変換
func unmarshalItem(av map[string]types.AttributeValue) (Item, error) {
	item := Item{}
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item, nil
}

// Get はidで1件取得する。存在しない場合はnilを返す
func (s *TableStore) Get(ctx context.Context, id string) (Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}

	if len(result.Item) == 0 {
		return nil, nil
	}

	return unmarshalItem(result.Item)
}

// List はテーブル全体をスキャンする。全ページを読み切る
func (s *TableStore) List(ctx context.Context) ([]Item, error) {
	items := []Item{}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", s.tableName, err)
		}

		for _, av := range page.Items {
			item, err := unmarshalItem(av)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Create は現在時刻(ミリ秒)をidとして登録する。
// 呼び出し側が渡したidは上書きされる
func (s *TableStore) Create(ctx context.Context, data Item) (Item, error) {
	item := make(Item, len(data)+1)
	for k, v := range data {
		item[k] = v
	}

	ts := s.now().UnixMilli()
	for attempt := 1; ; attempt++ {
		id := strconv.FormatInt(ts, 10)
		item["id"] = id

		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal item: %w", err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		})
		if err == nil {
			return item, nil
		}

		// 同じミリ秒に別の登録があった場合は次のミリ秒で再試行
		var conflict *types.ConditionalCheckFailedException
		if !errors.As(err, &conflict) || attempt >= maxCreateAttempts {
			return nil, fmt.Errorf("failed to put item %s: %w", id, err)
		}
		ts++
	}
}

// Update はtitleとdescriptionだけを書き換え、更新後の値を返す。
// どちらかがボディにない場合はアイテムに触れずに失敗する。
// 存在しないidは条件式で失敗する
func (s *TableStore) Update(ctx context.Context, id string, data Item) (Item, error) {
	values := map[string]types.AttributeValue{}
	for _, field := range []string{"title", "description"} {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("failed to update item %s: %w: %s", id, ErrMissingAttribute, field)
		}
		if v == nil {
			values[":"+field] = &types.AttributeValueMemberNULL{Value: true}
			continue
		}

		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		values[":"+field] = av
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 itemKey(id),
		UpdateExpression:    aws.String("set #title = :title, #description = :description"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#title":       "title",
			"#description": "description",
		},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", id, err)
	}

	return unmarshalItem(result.Attributes)
}

// Delete はidのアイテムを削除する。存在しなくても成功扱い
func (s *TableStore) Delete(ctx context.Context, id string) (Message, error) {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(id),
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	return deletedMessage, nil
}
