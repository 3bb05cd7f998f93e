package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/internal/infrastructure/orderevents"
	"github.com/rezahawari/qurban-marketplace/pkg/cloudevents"
	qmongo "github.com/rezahawari/qurban-marketplace/pkg/mongodb"
	"github.com/rezahawari/qurban-marketplace/pkg/outbox"
	outboxMongo "github.com/rezahawari/qurban-marketplace/pkg/outbox/mongodb"
)

// Collection names
const (
	ProductsCollection = "products"
	FeeRulesCollection = "fee_rules"
	OrdersCollection   = "orders"
	UsersCollection    = "users"
	ArticlesCollection = "articles"
)

func createIndexes(collection *mongo.Collection, indexes []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	collection := db.Collection(ProductsCollection)

	createIndexes(collection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "serviceType", Value: 1},
				{Key: "position", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "position", Value: 1}},
		},
	})

	return &ProductRepository{collection: collection}
}

// Save persists a product
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := qmongo.UpsertByID(ctx, r.collection, product.ProductID, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	found, err := qmongo.FindOneByID(ctx, r.collection, productID, &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// FindAll returns products in catalog order
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "position", Value: 1},
		{Key: "_id", Value: 1},
	})

	var products []*domain.Product
	if err := qmongo.FindAll(ctx, r.collection, r.buildFilter(filter), &products, opts); err != nil {
		return nil, err
	}
	return products, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	existed, err := qmongo.DeleteByID(ctx, r.collection, productID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return nil
}

// Count returns total count matching filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

func (r *ProductRepository) buildFilter(filter domain.ProductFilter) bson.M {
	mongoFilter := bson.M{}
	if filter.ServiceType != nil {
		mongoFilter["serviceType"] = *filter.ServiceType
	}
	if filter.AnimalType != nil {
		mongoFilter["animalType"] = *filter.AnimalType
	}
	return mongoFilter
}

// FeeRuleRepository implements domain.FeeRuleRepository
type FeeRuleRepository struct {
	collection *mongo.Collection
}

// NewFeeRuleRepository creates a new FeeRuleRepository
func NewFeeRuleRepository(db *mongo.Database) *FeeRuleRepository {
	collection := db.Collection(FeeRulesCollection)

	createIndexes(collection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "position", Value: 1}},
		},
	})

	return &FeeRuleRepository{collection: collection}
}

// Save persists a fee rule
func (r *FeeRuleRepository) Save(ctx context.Context, rule domain.FeeRule) error {
	if err := qmongo.UpsertByID(ctx, r.collection, rule.FeeID, rule); err != nil {
		return fmt.Errorf("failed to save fee rule: %w", err)
	}
	return nil
}

// FindByID retrieves a fee rule by ID
func (r *FeeRuleRepository) FindByID(ctx context.Context, feeID string) (*domain.FeeRule, error) {
	var rule domain.FeeRule
	found, err := qmongo.FindOneByID(ctx, r.collection, feeID, &rule)
	if err != nil || !found {
		return nil, err
	}
	return &rule, nil
}

// FindAll returns the rules in application order
func (r *FeeRuleRepository) FindAll(ctx context.Context) ([]domain.FeeRule, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "position", Value: 1},
		{Key: "_id", Value: 1},
	})

	var rules []domain.FeeRule
	if err := qmongo.FindAll(ctx, r.collection, bson.M{}, &rules, opts); err != nil {
		return nil, err
	}
	return rules, nil
}

// Delete removes a fee rule
func (r *FeeRuleRepository) Delete(ctx context.Context, feeID string) error {
	existed, err := qmongo.DeleteByID(ctx, r.collection, feeID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", domain.ErrFeeRuleNotFound, feeID)
	}
	return nil
}

// OrderRepository implements domain.OrderRepository
type OrderRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *OrderRepository {
	collection := db.Collection(OrdersCollection)
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	createIndexes(collection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "customerEmail", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "serviceType", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = outboxRepo.EnsureIndexes(ctx)

	return &OrderRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// Save persists an order with its domain events in one transaction
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	err := qmongo.RunInTransaction(ctx, r.db.Client(), func(sessCtx mongo.SessionContext) error {
		if err := qmongo.UpsertByID(sessCtx, r.collection, order.OrderID, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		outboxEvents, err := orderevents.ToOutbox(sessCtx, r.eventFactory, order)
		if err != nil {
			return err
		}
		if len(outboxEvents) > 0 {
			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.ClearDomainEvents()
	return nil
}

// FindByID retrieves an order by ID
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	found, err := qmongo.FindOneByID(ctx, r.collection, orderID, &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

// FindAll returns orders newest first
func (r *OrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter, pagination domain.Pagination) ([]*domain.Order, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	var orders []*domain.Order
	if err := qmongo.FindAll(ctx, r.collection, r.buildFilter(filter), &orders, opts); err != nil {
		return nil, err
	}
	return orders, nil
}

// Count returns total count matching filter
func (r *OrderRepository) Count(ctx context.Context, filter domain.OrderFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

func (r *OrderRepository) buildFilter(filter domain.OrderFilter) bson.M {
	mongoFilter := bson.M{}
	if filter.Status != nil {
		mongoFilter["status"] = *filter.Status
	}
	if filter.CustomerEmail != nil {
		mongoFilter["customerEmail"] = domain.NormalizeEmail(*filter.CustomerEmail)
	}
	if filter.ServiceType != nil {
		mongoFilter["serviceType"] = *filter.ServiceType
	}
	if filter.Documented != nil {
		mongoFilter["documentation"] = bson.M{"$exists": *filter.Documented}
	}
	if filter.FromDate != nil || filter.ToDate != nil {
		createdAt := bson.M{}
		if filter.FromDate != nil {
			createdAt["$gte"] = *filter.FromDate
		}
		if filter.ToDate != nil {
			createdAt["$lt"] = *filter.ToDate
		}
		mongoFilter["createdAt"] = createdAt
	}
	return mongoFilter
}

// GetOutboxRepository returns the outbox repository
func (r *OrderRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}

// UserRepository implements domain.UserRepository
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	collection := db.Collection(UsersCollection)

	createIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
	})

	return &UserRepository{collection: collection}
}

// Save persists a user
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := qmongo.UpsertByID(ctx, r.collection, user.UserID, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	found, err := qmongo.FindOneByID(ctx, r.collection, userID, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by normalized email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var users []*domain.User
	filter := bson.M{"email": domain.NormalizeEmail(email)}
	if err := qmongo.FindAll(ctx, r.collection, filter, &users, options.Find().SetLimit(1)); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// FindAll returns users oldest first
func (r *UserRepository) FindAll(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	var users []*domain.User
	if err := qmongo.FindAll(ctx, r.collection, r.buildFilter(filter), &users, opts); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns total count matching filter
func (r *UserRepository) Count(ctx context.Context, filter domain.UserFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

func (r *UserRepository) buildFilter(filter domain.UserFilter) bson.M {
	mongoFilter := bson.M{}
	if filter.Role != nil {
		mongoFilter["role"] = *filter.Role
	}
	if filter.IsActive != nil {
		mongoFilter["isActive"] = *filter.IsActive
	}
	return mongoFilter
}

// ArticleRepository implements domain.ArticleRepository
type ArticleRepository struct {
	collection *mongo.Collection
}

// NewArticleRepository creates a new ArticleRepository
func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	collection := db.Collection(ArticlesCollection)

	createIndexes(collection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	})

	return &ArticleRepository{collection: collection}
}

// Save persists an article
func (r *ArticleRepository) Save(ctx context.Context, article *domain.Article) error {
	if err := qmongo.UpsertByID(ctx, r.collection, article.ArticleID, article); err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	return nil
}

// FindByID retrieves an article by ID
func (r *ArticleRepository) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	var article domain.Article
	found, err := qmongo.FindOneByID(ctx, r.collection, articleID, &article)
	if err != nil || !found {
		return nil, err
	}
	return &article, nil
}

// FindAll returns articles newest first
func (r *ArticleRepository) FindAll(ctx context.Context, filter domain.ArticleFilter) ([]*domain.Article, error) {
	mongoFilter := bson.M{}
	if filter.Status != nil {
		mongoFilter["status"] = *filter.Status
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	var articles []*domain.Article
	if err := qmongo.FindAll(ctx, r.collection, mongoFilter, &articles, opts); err != nil {
		return nil, err
	}
	return articles, nil
}

// Delete removes an article
func (r *ArticleRepository) Delete(ctx context.Context, articleID string) error {
	existed, err := qmongo.DeleteByID(ctx, r.collection, articleID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
	}
	return nil
}

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.FeeRuleRepository = (*FeeRuleRepository)(nil)
	_ domain.OrderRepository   = (*OrderRepository)(nil)
	_ domain.UserRepository    = (*UserRepository)(nil)
	_ domain.ArticleRepository = (*ArticleRepository)(nil)
)
