package services

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memCollection is an in-memory collection covering the driver surface the
// services use: equality filters, $in, array-contains, $set/$inc updates and
// duplicate-key errors on _id plus any configured unique field tuples.
type memCollection struct {
	mu          sync.Mutex
	docs        []bson.M
	uniqueKeys  [][]string
	updateCalls int
}

func newMemCollection(uniqueKeys ...[]string) *memCollection {
	return &memCollection{uniqueKeys: uniqueKeys}
}

var errDuplicateKey = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}

// toDoc round-trips a struct through bson so stored documents carry the same
// field names the real collection would.
func toDoc(v interface{}) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		panic(err)
	}
	return doc
}

func valueEqual(got, want interface{}) bool {
	if arr, ok := got.(bson.A); ok {
		for _, item := range arr {
			if fmt.Sprint(item) == fmt.Sprint(want) {
				return true
			}
		}
		return false
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func valueIn(got, in interface{}) bool {
	switch vals := in.(type) {
	case []string:
		for _, v := range vals {
			if valueEqual(got, v) {
				return true
			}
		}
	case []interface{}:
		for _, v := range vals {
			if valueEqual(got, v) {
				return true
			}
		}
	case bson.A:
		for _, v := range vals {
			if valueEqual(got, v) {
				return true
			}
		}
	}
	return false
}

func matchesFilter(doc bson.M, filter interface{}) bool {
	f, ok := filter.(bson.M)
	if !ok {
		return false
	}
	for key, want := range f {
		if op, ok := want.(bson.M); ok {
			in, hasIn := op["$in"]
			if !hasIn || !valueIn(doc[key], in) {
				return false
			}
			continue
		}
		if !valueEqual(doc[key], want) {
			return false
		}
	}
	return true
}

func (c *memCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := toDoc(document)
	for _, existing := range c.docs {
		if valueEqual(existing["_id"], doc["_id"]) {
			return nil, errDuplicateKey
		}
		for _, fields := range c.uniqueKeys {
			same := true
			for _, field := range fields {
				if !valueEqual(existing[field], doc[field]) {
					same = false
					break
				}
			}
			if same {
				return nil, errDuplicateKey
			}
		}
	}
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (c *memCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range c.docs {
		if matchesFilter(doc, filter) {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *memCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := make([]interface{}, 0, len(c.docs))
	for _, doc := range c.docs {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	return mongo.NewCursorFromDocuments(matched, nil, nil)
}

func (c *memCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++

	for i, doc := range c.docs {
		if !matchesFilter(doc, filter) {
			continue
		}
		applyUpdate(doc, update)
		c.docs[i] = doc
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func applyUpdate(doc bson.M, update interface{}) {
	u, ok := update.(bson.M)
	if !ok {
		return
	}
	if set, ok := u["$set"].(bson.M); ok {
		for k, v := range set {
			doc[k] = v
		}
	}
	if inc, ok := u["$inc"].(bson.M); ok {
		for k, v := range inc {
			doc[k] = toInt64(doc[k]) + toInt64(v)
		}
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func (c *memCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if matchesFilter(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (c *memCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int64
	for _, doc := range c.docs {
		if matchesFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

// zeroCountCollection reports zero documents regardless of contents, which
// forces the insert path to be the one that detects duplicates.
type zeroCountCollection struct {
	*memCollection
}

func (z zeroCountCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return 0, nil
}
