package graph

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Схема только для чтения: посты и комментарии, без содержимого файлов
const schemaSDL = `
type Query {
  posts(limit: Int, offset: Int): [Post!]!
  post(id: ID!): Post
}

type Post {
  id: ID!
  content: String!
  createdAt: String!
  suggestedQuestions: [String!]!
  media: File
  attachedFile: File
  comments(limit: Int, offset: Int): [Comment!]!
}

type File {
  name: String!
  kind: String!
  size: Int!
}

type Comment {
  id: ID!
  question: String!
  answer: String
  answerStatus: String
  replies: [String!]!
  createdAt: String!
}
`

// Schema - разобранная схема ленты
var Schema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})
