package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"boutique/internal/apperrors"
	"boutique/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	AccountsCollection = "accounts"
)

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(collection *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{
		collection: collection,
	}
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M, op string) ([]models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.Upstream(op, err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperrors.Upstream(op, err)
	}
	return products, nil
}

// List returns every product, oldest first.
func (r *MongoProductRepository) List(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{}, "list products")
}

// ListLowStock compares the two stock fields of each document server side.
func (r *MongoProductRepository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	filter := bson.M{"$expr": bson.M{"$lte": bson.A{"$stock_quantity", "$low_stock_threshold"}}}
	return r.find(ctx, filter, "list low stock products")
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errProductNotFound(id)
		}
		return nil, apperrors.Upstream("get product", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if product.ID == "" {
		product.ID = newObjectID()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return apperrors.Upstream("create product", err)
	}
	return nil
}

// Update replaces the stored document, keeping its creation time.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()
	set, err := toSetDocument(product, "_id", "created_at")
	if err != nil {
		return apperrors.Upstream("update product", err)
	}

	var updated models.Product
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": product.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errProductNotFound(product.ID)
		}
		return apperrors.Upstream("update product", err)
	}
	*product = updated
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Upstream("delete product", err)
	}
	if result.DeletedCount == 0 {
		return errProductNotFound(id)
	}
	return nil
}

func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Upstream("count products", err)
	}
	return n, nil
}

// MongoOrderRepository is a MongoDB implementation of OrderRepository.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(collection *mongo.Collection) *MongoOrderRepository {
	return &MongoOrderRepository{collection: collection}
}

func (r *MongoOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperrors.Upstream("list orders", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperrors.Upstream("list orders", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errOrderNotFound(id)
		}
		return nil, apperrors.Upstream("get order", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if order.ID == "" {
		order.ID = newObjectID()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return apperrors.Upstream("create order", err)
	}
	return nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errOrderNotFound(id)
		}
		return nil, apperrors.Upstream("update order status", err)
	}
	return &order, nil
}

// MongoAccountRepository is a MongoDB implementation of AccountRepository.
type MongoAccountRepository struct {
	collection *mongo.Collection
}

func NewMongoAccountRepository(collection *mongo.Collection) *MongoAccountRepository {
	return &MongoAccountRepository{collection: collection}
}

// EnsureIndexes creates the unique email index.
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoAccountRepository) Create(ctx context.Context, account *models.Account) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if account.ID == "" {
		account.ID = newObjectID()
	}
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errEmailTaken()
		}
		return apperrors.Upstream("create account", err)
	}
	return nil
}

func (r *MongoAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *MongoAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var account models.Account
	if err := r.collection.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errAccountNotFound(key)
		}
		return nil, apperrors.Upstream("get account", err)
	}
	return &account, nil
}

func (r *MongoAccountRepository) Update(ctx context.Context, account *models.Account) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	account.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"name":          account.Name,
		"phone":         account.Phone,
		"address":       account.Address,
		"password_hash": account.PasswordHash,
		"updatedAt":     account.UpdatedAt,
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": account.ID}, bson.M{"$set": update})
	if err != nil {
		return apperrors.Upstream("update account", err)
	}
	if result.MatchedCount == 0 {
		return errAccountNotFound(account.ID)
	}
	return nil
}

// toSetDocument marshals v to a BSON document without the omitted keys.
func toSetDocument(v any, omit ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for _, k := range omit {
		delete(doc, k)
	}
	return doc, nil
}
