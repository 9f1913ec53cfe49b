package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 10 * time.Second

// MongoStorage - хранилище в MongoDB: один документ на пост,
// комментарии и ответы добавляются атомарным $push
type MongoStorage struct {
	client *mongo.Client
	posts  *mongo.Collection
	opts   Options
}

// NewMongoStorage подключается к MongoDB и создаёт уникальный индекс по postId
func NewMongoStorage(uri, database string, opts Options) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	posts := client.Database(database).Collection("posts")
	_, err = posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postId index: %w", err)
	}

	log.Println("Connected to MongoDB successfully")
	return &MongoStorage{client: client, posts: posts, opts: opts}, nil
}

// GetAllPosts возвращает все посты, новые первыми
func (s *MongoStorage) GetAllPosts() ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	cursor, err := s.posts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		log.Printf("GetAllPosts find error: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetAllPosts decode error: %v", err)
		return nil, err
	}
	for i := range posts {
		normalize(&posts[i])
	}
	return posts, nil
}

// GetPostByID возвращает пост по ID
func (s *MongoStorage) GetPostByID(id string) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	var post models.Post
	err := s.posts.FindOne(ctx, bson.M{"postId": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&post)
	return &post, nil
}

// AddPost добавляет новый пост
func (s *MongoStorage) AddPost(post models.Post) (models.Post, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC().Round(0)
	}
	log.Printf("Adding new post: %s", post.PostID)
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Post{}, fmt.Errorf("insert post %s: %w", post.PostID, ErrDuplicatePostID)
		}
		log.Printf("AddPost insert error: %v", err)
		return models.Post{}, err
	}
	return post, nil
}

// AttachFile сохраняет прикреплённый файл поста
func (s *MongoStorage) AttachFile(postID string, file models.Artifact) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	var post models.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"postId": postID},
		bson.M{"$set": bson.M{"attachedFile": file}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&post)
	return &post, nil
}

// AddComment добавляет комментарий к посту
func (s *MongoStorage) AddComment(postID string, comment models.Comment) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	log.Printf("Adding comment to post %s", postID)
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC().Round(0)
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}

	res, err := s.posts.UpdateOne(ctx, bson.M{"postId": postID},
		bson.M{"$push": bson.M{"comments": s.pushEach(comment)}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrPostNotFound
	}
	return &comment, nil
}

// AddReply добавляет ответ к комментарию. Комментарий с ID находится через arrayFilters,
// поэтому ответ не уедет на соседний, даже если сверху добавили новые.
func (s *MongoStorage) AddReply(postID string, ref CommentRef, reply string) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	log.Printf("Adding reply to %s of post %s", ref, postID)
	filter, slot, opts, err := replyTarget(postID, ref)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = s.posts.FindOneAndUpdate(ctx, filter,
		bson.M{"$push": bson.M{slot + ".replies": s.pushEach(reply)}},
		opts.SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, lookupErr := s.GetPostByID(postID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&post)

	i := ref.Find(post.Comments)
	if i < 0 {
		return nil, ErrCommentNotFound
	}
	comment := post.Comments[i]
	return &comment, nil
}

// replyTarget строит фильтр и путь к массиву ответов нужного комментария
func replyTarget(postID string, ref CommentRef) (bson.M, string, *options.FindOneAndUpdateOptions, error) {
	opts := options.FindOneAndUpdate()
	if ref.ID != "" {
		opts.SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"c.id": ref.ID}}})
		return bson.M{"postId": postID, "comments.id": ref.ID}, "comments.$[c]", opts, nil
	}
	if ref.Index < 0 {
		return nil, "", nil, ErrCommentNotFound
	}
	slot := fmt.Sprintf("comments.%d", ref.Index)
	return bson.M{"postId": postID, slot: bson.M{"$exists": true}}, slot, opts, nil
}

// Close отключается от MongoDB
func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStorage) pushEach(v interface{}) bson.M {
	push := bson.M{"$each": bson.A{v}}
	if s.opts.NewestFirst {
		push["$position"] = 0
	}
	return push
}

func normalize(post *models.Post) {
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	for i := range post.Comments {
		if post.Comments[i].Replies == nil {
			post.Comments[i].Replies = []string{}
		}
	}
}
