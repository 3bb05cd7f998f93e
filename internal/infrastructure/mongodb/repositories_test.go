package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

func TestProductBuildFilter(t *testing.T) {
	repo := &ProductRepository{}
	service := domain.ServiceTypeAqiqah

	mongoFilter := repo.buildFilter(domain.ProductFilter{ServiceType: &service})
	assert.Equal(t, service, mongoFilter["serviceType"])
	assert.NotContains(t, mongoFilter, "animalType")
}

func TestOrderBuildFilter(t *testing.T) {
	repo := &OrderRepository{}
	status := domain.OrderStatusPaid
	email := " Ahmad@Example.com"
	documented := false
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mongoFilter := repo.buildFilter(domain.OrderFilter{
		Status:        &status,
		CustomerEmail: &email,
		Documented:    &documented,
		FromDate:      &from,
		ToDate:        &to,
	})

	assert.Equal(t, status, mongoFilter["status"])
	assert.Equal(t, "ahmad@example.com", mongoFilter["customerEmail"])
	assert.Equal(t, bson.M{"$exists": false}, mongoFilter["documentation"])
	assert.Equal(t, bson.M{"$gte": from, "$lt": to}, mongoFilter["createdAt"])
}

func TestUserBuildFilter(t *testing.T) {
	repo := &UserRepository{}
	role := domain.UserRoleAdmin
	active := true

	mongoFilter := repo.buildFilter(domain.UserFilter{Role: &role, IsActive: &active})
	assert.Equal(t, role, mongoFilter["role"])
	assert.Equal(t, true, mongoFilter["isActive"])
}
