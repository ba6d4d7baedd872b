package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ticket-agent/internal/domain"
)

const (
	skPrefixMsg = "MSG#"
	skMeta      = "META#"
	skAttach    = "ATTACH#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store keeps one conversation per thread in a single DynamoDB table:
// MSG#<seq> items for the transcript, one optional ATTACH# item for the
// pending attachment, and a META# item for thread metadata. Each thread
// lives under its own partition key, so threads never contaminate each
// other.
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a Store over the given table.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// threadPK returns the partition key for a thread.
func threadPK(threadID string) string {
	return "CONV#" + threadID
}

// msgSK returns the sort key for the message at position seq. Zero padding
// keeps lexicographic order equal to insertion order.
func msgSK(seq int) string {
	return fmt.Sprintf("%s%08d", skPrefixMsg, seq)
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// Load reads the full conversation for a thread. A thread with no items at
// all reports found=false.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Conversation, bool, error) {
	pk := threadPK(threadID)

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, false, fmt.Errorf("repository: Load query: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if len(items) == 0 {
		return nil, false, nil
	}

	var (
		messages   []indexedMessage
		attachment *domain.Attachment
		lastRoute  string
	)
	for _, item := range items {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return nil, false, fmt.Errorf("repository: Load: %w", err)
		}
		switch {
		case strings.HasPrefix(sk, skPrefixMsg):
			msg, err := itemToMessage(item, sk)
			if err != nil {
				return nil, false, fmt.Errorf("repository: Load unmarshal message: %w", err)
			}
			messages = append(messages, msg)
		case sk == skAttach:
			attachment, err = itemToAttachment(item)
			if err != nil {
				return nil, false, fmt.Errorf("repository: Load unmarshal attachment: %w", err)
			}
		case sk == skMeta:
			lastRoute, _ = strAttr(item, "lastRoute") // allow empty
		}
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].sk < messages[j].sk })
	ordered := make([]domain.Message, len(messages))
	for i, m := range messages {
		ordered[i] = m.msg
	}

	conv := domain.Restore(ordered, attachment)
	if route, ok := domain.ParseRoutingDecision(lastRoute); ok {
		conv.SetLastRoute(route)
	}
	return conv, true, nil
}

// Save persists everything the current routing cycle changed in one
// transaction: the messages appended this cycle, the attachment put or
// delete, and the meta upsert. A cycle is therefore all-or-nothing; a
// message append can never be observed without the matching attachment
// state.
func (s *Store) Save(ctx context.Context, threadID string, conv *domain.Conversation) error {
	if conv == nil {
		return errors.New("repository: Save: conversation must not be nil")
	}
	pk := threadPK(threadID)
	unsaved := conv.Unsaved()
	baseSeq := conv.Len() - len(unsaved)

	items := make([]types.TransactWriteItem, 0, len(unsaved)+2)
	for i, msg := range unsaved {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      messageItem(pk, msgSK(baseSeq+i), msg),
				// Colliding sequence keys mean a concurrent writer got
				// there first; fail the whole cycle rather than overwrite.
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		})
	}

	if att := conv.Attachment(); att != nil {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      attachmentItem(pk, att),
			},
		})
	} else {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: pk},
					"SK": &types.AttributeValueMemberS{Value: skAttach},
				},
			},
		})
	}

	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item:      metaItem(pk, conv),
		},
	})

	if _, err := s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return fmt.Errorf("repository: Save: %w", err)
	}

	conv.MarkSaved()
	return nil
}

type indexedMessage struct {
	sk  string
	msg domain.Message
}

func itemToMessage(item map[string]types.AttributeValue, sk string) (indexedMessage, error) {
	role, err := strAttr(item, "role")
	if err != nil {
		return indexedMessage{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return indexedMessage{}, err
	}
	return indexedMessage{
		sk: sk,
		msg: domain.Message{
			Role:    domain.Role(role),
			Content: content,
		},
	}, nil
}

func itemToAttachment(item map[string]types.AttributeValue) (*domain.Attachment, error) {
	data, err := bytesAttr(item, "data")
	if err != nil {
		return nil, err
	}
	preview, _ := strAttr(item, "preview") // allow empty
	return &domain.Attachment{Data: data, Preview: preview}, nil
}

func messageItem(pk, sk string, msg domain.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: pk},
		"SK":      &types.AttributeValueMemberS{Value: sk},
		"role":    &types.AttributeValueMemberS{Value: string(msg.Role)},
		"content": &types.AttributeValueMemberS{Value: msg.Content},
		"ttl":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func attachmentItem(pk string, att *domain.Attachment) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: pk},
		"SK":      &types.AttributeValueMemberS{Value: skAttach},
		"data":    &types.AttributeValueMemberB{Value: att.Data},
		"preview": &types.AttributeValueMemberS{Value: att.Preview},
		"ttl":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func metaItem(pk string, conv *domain.Conversation) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: pk},
		"SK":           &types.AttributeValueMemberS{Value: skMeta},
		"messages":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", conv.Len())},
		"lastRoute":    &types.AttributeValueMemberS{Value: string(conv.LastRoute())},
		"lastActivity": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		"ttl":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}

func bytesAttr(item map[string]types.AttributeValue, key string) ([]byte, error) {
	v, ok := item[key]
	if !ok {
		return nil, fmt.Errorf("missing attribute %q", key)
	}
	b, ok := v.(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("attribute %q is not binary", key)
	}
	return b.Value, nil
}
