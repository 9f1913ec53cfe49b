package storage

import (
	"github.com/MosinFAM/smart-feed/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetAllPosts() ([]models.Post, error) {
	args := m.Called()
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockStorage) GetPostByID(id string) (*models.Post, error) {
	args := m.Called(id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) AddPost(post models.Post) (models.Post, error) {
	args := m.Called(post)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockStorage) AttachFile(postID string, file models.Artifact) (*models.Post, error) {
	args := m.Called(postID, file)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) AddComment(postID string, comment models.Comment) (*models.Comment, error) {
	args := m.Called(postID, comment)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockStorage) AddReply(postID string, ref CommentRef, reply string) (*models.Comment, error) {
	args := m.Called(postID, ref, reply)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
