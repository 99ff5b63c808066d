// internal/service/order/infrastructure/mongo.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"microcommerce/internal/service/order/domain"
)

// MongoRepository 是 domain.OrderRepository 的 MongoDB 实现。
// 订单以单文档存储，Mongo 保证单文档写入的原子性，这正是领域层假设的全部。
type MongoRepository struct {
	collection *mongo.Collection
	tracer     trace.Tracer
}

func NewMongoRepository(db *mongo.Database, collection string) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(collection),
		tracer:     otel.Tracer("order-repository"),
	}
}

// orderDoc 是持久化文档结构。金额存为 Decimal128 而不是 double，
// 和领域层的十进制精度保持一致。
type orderDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      string               `bson:"userId"`
	Items       []orderItemDoc       `bson:"items"`
	Status      string               `bson:"status"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`

	ShippingAddress string `bson:"shippingAddress,omitempty"`
	ShippingCity    string `bson:"shippingCity,omitempty"`
	ShippingZipCode string `bson:"shippingZipCode,omitempty"`
	ShippingCountry string `bson:"shippingCountry,omitempty"`
	Notes           string `bson:"notes,omitempty"`
}

type orderItemDoc struct {
	ProductID          string               `bson:"productId"`
	ProductName        string               `bson:"productName"`
	ProductCategory    string               `bson:"productCategory,omitempty"`
	ProductDescription string               `bson:"productDescription,omitempty"`
	Quantity           int                  `bson:"quantity"`
	Price              primitive.Decimal128 `bson:"price"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func toDoc(order *domain.Order) (*orderDoc, error) {
	total, err := toDecimal128(order.TotalAmount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid total amount")
	}

	items := make([]orderItemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid price for product %s", item.ProductID)
		}
		items = append(items, orderItemDoc{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductCategory:    item.ProductCategory,
			ProductDescription: item.ProductDescription,
			Quantity:           item.Quantity,
			Price:              price,
		})
	}

	doc := &orderDoc{
		UserID:          order.UserID,
		Items:           items,
		Status:          string(order.Status),
		TotalAmount:     total,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		ShippingZipCode: order.ShippingZipCode,
		ShippingCountry: order.ShippingCountry,
		Notes:           order.Notes,
	}
	if order.ID != "" {
		oid, err := primitive.ObjectIDFromHex(order.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid order id %s", order.ID)
		}
		doc.ID = oid
	}
	return doc, nil
}

func fromDoc(doc *orderDoc) (*domain.Order, error) {
	total, err := fromDecimal128(doc.TotalAmount)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt total amount")
	}

	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt price for product %s", item.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductCategory:    item.ProductCategory,
			ProductDescription: item.ProductDescription,
			Quantity:           item.Quantity,
			Price:              price,
		})
	}

	return &domain.Order{
		ID:              doc.ID.Hex(),
		UserID:          doc.UserID,
		Items:           items,
		Status:          domain.Status(doc.Status),
		TotalAmount:     total,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		ShippingAddress: doc.ShippingAddress,
		ShippingCity:    doc.ShippingCity,
		ShippingZipCode: doc.ShippingZipCode,
		ShippingCountry: doc.ShippingCountry,
		Notes:           doc.Notes,
	}, nil
}

// Save 持久化订单。没有 ID 时插入并回填新分配的 ObjectID，
// 有 ID 时整文档替换。
func (r *MongoRepository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "MongoRepository.Save")
	defer span.End()

	doc, err := toDoc(order)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if order.ID == "" {
		doc.ID = primitive.NewObjectID()
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			span.RecordError(err)
			return nil, errors.Wrap(err, "failed to insert order")
		}
	} else {
		result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
		if err != nil {
			span.RecordError(err)
			return nil, errors.Wrap(err, "failed to replace order")
		}
		if result.MatchedCount == 0 {
			return nil, domain.ErrOrderNotFound
		}
	}

	span.SetAttributes(attribute.String("order.id", doc.ID.Hex()))
	return fromDoc(doc)
}

// FindByID 按 ID 查找。非法的 hex 串等价于不存在。
func (r *MongoRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "MongoRepository.FindByID")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	var doc orderDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}
	return fromDoc(&doc)
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoRepository) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *MongoRepository) FindByUserAndStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID, "status": string(status)})
}

func (r *MongoRepository) FindByCreatedBetween(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"createdAt": bson.M{"$gte": start, "$lte": end}})
}

// FindByProductID 查找条目数组中包含指定商品的订单。
func (r *MongoRepository) FindByProductID(ctx context.Context, productID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"items.productId": productID})
}

// FindPendingOlderThan 查找长期停在 PENDING 的订单，给监控用。
func (r *MongoRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{
		"status":    string(domain.StatusPending),
		"createdAt": bson.M{"$lt": cutoff},
	})
}

// find 是所有列表查询的公共实现，统一按创建时间倒序。
func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query orders")
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode order document")
		}
		order, err := fromDoc(&doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, cursor.Err()
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MongoRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": string(status)})
}

// DeleteByID 删除订单文档；没有匹配时返回 ErrOrderNotFound。
func (r *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "MongoRepository.DeleteByID")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrOrderNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to delete order")
	}
	if result.DeletedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
