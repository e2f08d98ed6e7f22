package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

const organizationsCollection = "organizations"

// MongoOrganizationRepository reads company records maintained by the staff
// CRM tooling. This service only ever resolves display names from it.
type MongoOrganizationRepository struct {
	coll *mongo.Collection
}

func NewOrganizationRepository(db *mongo.Database) *MongoOrganizationRepository {
	return &MongoOrganizationRepository{coll: db.Collection(organizationsCollection)}
}

type mongoOrganization struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func (r *MongoOrganizationRepository) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}

	var mo mongoOrganization
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}

	return &domain.Organization{ID: mo.ID.Hex(), Name: mo.Name}, nil
}
