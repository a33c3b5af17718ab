package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"account-service/internal/client"
	"account-service/internal/models"
	"account-service/internal/util"
)

// UserIndex projects user accounts into Elasticsearch for admin search.
// The index never stores the email plaintext or the password hash; it is a
// projection, the credential store stays the source of truth.
type UserIndex struct {
	es    *client.ESClient
	index string
}

// UserDocument is the indexed projection of a user account.
type UserDocument struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	IsEnabled  bool      `json:"is_enabled"`
	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on,omitempty"`
}

func NewUserIndex(es *client.ESClient, index string) *UserIndex {
	return &UserIndex{
		es:    es,
		index: index,
	}
}

// IndexUser upserts the projection for one user.
func (i *UserIndex) IndexUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role.String(),
		IsEnabled: user.IsEnabled,
		CreatedOn: user.CreatedOn,
	}
	if user.ModifiedOn != nil {
		doc.ModifiedOn = *user.ModifiedOn
	}

	if err := i.es.Index(ctx, i.index, user.ID, doc); err != nil {
		return fmt.Errorf("failed to index user %s: %w", user.ID, err)
	}

	util.Debug("user indexed", zap.String("user_id", user.ID))
	return nil
}

// SearchUsers runs a name prefix search and returns matching documents.
func (i *UserIndex) SearchUsers(ctx context.Context, term string, size int) ([]UserDocument, error) {
	if size <= 0 {
		size = 25
	}

	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"type":   "bool_prefix",
				"fields": []string{"first_name", "last_name"},
			},
		},
	}

	res, err := i.es.Search(ctx, i.index, query)
	if err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("user search error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	docs := make([]UserDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
