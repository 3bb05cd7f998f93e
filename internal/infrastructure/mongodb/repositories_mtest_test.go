package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/cloudevents"
	outboxMongo "github.com/rezahawari/qurban-marketplace/pkg/outbox/mongodb"
)

func namespace(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func TestRepositoryConstructors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("product", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewProductRepository(mt.DB))
	})

	mt.Run("fee rule", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewFeeRuleRepository(mt.DB))
	})

	mt.Run("user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewUserRepository(mt.DB))
	})

	mt.Run("article", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewArticleRepository(mt.DB))
	})

	mt.Run("order", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // orders indexes
			mtest.CreateSuccessResponse(), // outbox indexes
		)
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceMarketplace))
		require.NotNil(t, repo)
		assert.NotNil(t, repo.GetOutboxRepository())
	})
}

func TestProductRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("crud", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.DB.Collection(ProductsCollection)}
		ctx := context.Background()
		ns := namespace(mt, ProductsCollection)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Save(ctx, &domain.Product{ProductID: "kurban_goat"}))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "kurban_goat"},
			{Key: "productId", Value: "kurban_goat"},
			{Key: "serviceType", Value: "kurban"},
		}))
		product, err := repo.FindByID(ctx, "kurban_goat")
		require.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, domain.ServiceTypeKurban, product.ServiceType)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		missing, err := repo.FindByID(ctx, "camel")
		require.NoError(t, err)
		assert.Nil(t, missing)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "productId", Value: "kurban_goat"}, {Key: "position", Value: 0}},
			bson.D{{Key: "productId", Value: "kurban_cow"}, {Key: "position", Value: 1}},
		))
		products, err := repo.FindAll(ctx, domain.ProductFilter{})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "kurban_cow", products[1].ProductID)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int64(4)},
		}))
		count, err := repo.Count(ctx, domain.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Delete(ctx, "kurban_goat"))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(t, repo.Delete(ctx, "kurban_goat"), domain.ErrProductNotFound)
	})
}

func TestFeeRuleRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("crud", func(mt *mtest.T) {
		repo := &FeeRuleRepository{collection: mt.DB.Collection(FeeRulesCollection)}
		ctx := context.Background()
		ns := namespace(mt, FeeRulesCollection)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Save(ctx, domain.FeeRule{FeeID: "F-1", Label: "Service Fee", Kind: domain.FeeKindFixed}))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "feeId", Value: "F-1"}, {Key: "kind", Value: "percentage"}},
			bson.D{{Key: "feeId", Value: "F-2"}, {Key: "kind", Value: "fixed"}},
		))
		rules, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, domain.FeeKindPercentage, rules[0].Kind)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "feeId", Value: "F-2"},
			{Key: "label", Value: "Service Fee"},
		}))
		rule, err := repo.FindByID(ctx, "F-2")
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, "Service Fee", rule.Label)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(t, repo.Delete(ctx, "F-9"), domain.ErrFeeRuleNotFound)
	})
}

func TestOrderRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find", func(mt *mtest.T) {
		repo := &OrderRepository{collection: mt.DB.Collection(OrdersCollection), db: mt.DB}
		ctx := context.Background()
		ns := namespace(mt, OrdersCollection)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "orderId", Value: "PYR-10001"},
			{Key: "status", Value: "paid"},
		}))
		order, err := repo.FindByID(ctx, "PYR-10001")
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, domain.OrderStatusPaid, order.Status)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "orderId", Value: "PYR-10002"}},
			bson.D{{Key: "orderId", Value: "PYR-10001"}},
		))
		orders, err := repo.FindAll(ctx, domain.OrderFilter{}, domain.DefaultPagination())
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "PYR-10002", orders[0].OrderID)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int64(2)},
		}))
		count, err := repo.Count(ctx, domain.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestOrderRepository_SaveTransaction(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		repo := &OrderRepository{
			collection:   mt.DB.Collection(OrdersCollection),
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourceMarketplace),
		}

		now := time.Now().UTC()
		order := &domain.Order{
			OrderID:       "PYR-10001",
			CustomerEmail: "ahmad@example.com",
			ServiceType:   domain.ServiceTypeKurban,
			TotalPrice:    decimal.NewFromInt(260),
			Beneficiaries: []string{"Ahmad"},
			Status:        domain.OrderStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, order.AdvanceStatus(domain.OrderStatusPaid))

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(), // outbox insertMany
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		require.NoError(t, repo.Save(context.Background(), order))
		assert.Empty(t, order.DomainEvents())
	})
}

func TestUserRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lookup", func(mt *mtest.T) {
		repo := &UserRepository{collection: mt.DB.Collection(UsersCollection)}
		ctx := context.Background()
		ns := namespace(mt, UsersCollection)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "userId", Value: "U-2"},
			{Key: "email", Value: "ahmad@example.com"},
			{Key: "isActive", Value: true},
		}))
		user, err := repo.FindByEmail(ctx, "Ahmad@Example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "U-2", user.UserID)
		assert.True(t, user.IsActive)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		missing, err := repo.FindByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := &UserRepository{collection: mt.DB.Collection(UsersCollection)}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		err := repo.Save(context.Background(), &domain.User{UserID: "U-9", Email: "ahmad@example.com"})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestArticleRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list and delete", func(mt *mtest.T) {
		repo := &ArticleRepository{collection: mt.DB.Collection(ArticlesCollection)}
		ctx := context.Background()
		ns := namespace(mt, ArticlesCollection)

		published := domain.ArticleStatusPublished
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "articleId", Value: "B-1"},
			{Key: "status", Value: "published"},
		}))
		articles, err := repo.FindAll(ctx, domain.ArticleFilter{Status: &published})
		require.NoError(t, err)
		require.Len(t, articles, 1)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Delete(ctx, "B-1"))
	})
}
