package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"
	"github.com/MosinFAM/smart-feed/internal/storage"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
)

// PostSource - откуда резолвер читает ленту
type PostSource interface {
	Posts() ([]models.Post, error)
	Post(id string) (*models.Post, error)
}

type Resolver struct {
	Source PostSource
}

// Request - тело запроса GraphQL
type Request struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type Response struct {
	Data   map[string]interface{} `json:"data"`
	Errors gqlerror.List          `json:"errors,omitempty"`
}

func NewResolver(source PostSource) *Resolver {
	return &Resolver{Source: source}
}

// Execute разбирает и проверяет запрос по схеме, затем обходит выборку.
// Data равно nil, если запрос не прошёл проверку.
func (r *Resolver) Execute(ctx context.Context, req Request) Response {
	doc, errs := gqlparser.LoadQuery(Schema, req.Query)
	if len(errs) > 0 {
		return Response{Errors: errs}
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return Response{Errors: gqlerror.List{gqlerror.Errorf("operation %q not found", req.OperationName)}}
	}
	if op.Operation != ast.Query {
		return Response{Errors: gqlerror.List{gqlerror.Errorf("only queries are supported")}}
	}
	vars, err := validator.VariableValues(Schema, op, req.Variables)
	if err != nil {
		var gqlErr *gqlerror.Error
		if errors.As(err, &gqlErr) {
			return Response{Errors: gqlerror.List{gqlErr}}
		}
		return Response{Errors: gqlerror.List{gqlerror.Wrap(err)}}
	}

	ex := &execution{ctx: ctx, source: r.Source, vars: vars}
	data := ex.query(op.SelectionSet)
	return Response{Data: data, Errors: ex.errs}
}

type execution struct {
	ctx    context.Context
	source PostSource
	vars   map[string]interface{}
	errs   gqlerror.List
}

func (ex *execution) fail(path ast.Path, err error) {
	log.Printf("GraphQL field %s failed: %v", path, err)
	ex.errs = append(ex.errs, gqlerror.ErrorPathf(path, "%s", err.Error()))
}

func (ex *execution) query(set ast.SelectionSet) map[string]interface{} {
	out := map[string]interface{}{}
	ex.collect(set, func(f *ast.Field) {
		key := responseKey(f)
		path := ast.Path{ast.PathName(key)}
		if err := ex.ctx.Err(); err != nil {
			ex.fail(path, err)
			out[key] = nil
			return
		}
		switch f.Name {
		case "__typename":
			out[key] = "Query"
		case "posts":
			posts, err := ex.source.Posts()
			if err != nil {
				ex.fail(path, err)
				out[key] = nil
				return
			}
			posts = page(posts, f.ArgumentMap(ex.vars))
			list := make([]interface{}, len(posts))
			for i, p := range posts {
				list[i] = ex.post(p, f.SelectionSet, extend(path, ast.PathIndex(i)))
			}
			out[key] = list
		case "post":
			post, err := ex.source.Post(fmt.Sprint(f.ArgumentMap(ex.vars)["id"]))
			switch {
			case errors.Is(err, storage.ErrPostNotFound):
				out[key] = nil
			case err != nil:
				ex.fail(path, err)
				out[key] = nil
			default:
				out[key] = ex.post(*post, f.SelectionSet, path)
			}
		default:
			ex.fail(path, fmt.Errorf("field %s is not supported", f.Name))
			out[key] = nil
		}
	})
	return out
}

func (ex *execution) post(p models.Post, set ast.SelectionSet, path ast.Path) map[string]interface{} {
	out := map[string]interface{}{}
	ex.collect(set, func(f *ast.Field) {
		key := responseKey(f)
		switch f.Name {
		case "__typename":
			out[key] = "Post"
		case "id":
			out[key] = p.PostID
		case "content":
			out[key] = p.Content
		case "createdAt":
			out[key] = timestamp(p.CreatedAt)
		case "suggestedQuestions":
			out[key] = nonNil(p.SuggestedQuestions)
		case "media":
			out[key] = ex.file(p.Media, f.SelectionSet)
		case "attachedFile":
			out[key] = ex.file(p.AttachedFile, f.SelectionSet)
		case "comments":
			comments := page(p.Comments, f.ArgumentMap(ex.vars))
			list := make([]interface{}, len(comments))
			for i, c := range comments {
				list[i] = ex.comment(c, f.SelectionSet)
			}
			out[key] = list
		default:
			ex.fail(extend(path, ast.PathName(key)), fmt.Errorf("field %s is not supported", f.Name))
		}
	})
	return out
}

func (ex *execution) comment(c models.Comment, set ast.SelectionSet) map[string]interface{} {
	out := map[string]interface{}{}
	ex.collect(set, func(f *ast.Field) {
		key := responseKey(f)
		switch f.Name {
		case "__typename":
			out[key] = "Comment"
		case "id":
			out[key] = c.ID
		case "question":
			out[key] = c.Question
		case "answer":
			if c.Answer == nil {
				out[key] = nil
			} else {
				out[key] = *c.Answer
			}
		case "answerStatus":
			if c.AnswerStatus == "" {
				out[key] = nil
			} else {
				out[key] = c.AnswerStatus
			}
		case "replies":
			out[key] = nonNil(c.Replies)
		case "createdAt":
			out[key] = timestamp(c.CreatedAt)
		}
	})
	return out
}

// file отдаёт только описание файла; байты доступны через /posts/:id/media
func (ex *execution) file(a *models.Artifact, set ast.SelectionSet) interface{} {
	if a == nil {
		return nil
	}
	out := map[string]interface{}{}
	ex.collect(set, func(f *ast.Field) {
		key := responseKey(f)
		switch f.Name {
		case "__typename":
			out[key] = "File"
		case "name":
			out[key] = a.Name
		case "kind":
			out[key] = a.Kind
		case "size":
			out[key] = len(a.Data)
		}
	})
	return out
}

func (ex *execution) collect(set ast.SelectionSet, fn func(*ast.Field)) {
	collectFields(set, ex.vars, fn)
}

// collectFields раскрывает фрагменты и учитывает @skip/@include
func collectFields(set ast.SelectionSet, vars map[string]interface{}, fn func(*ast.Field)) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if included(s.Directives, vars) {
				fn(s)
			}
		case *ast.InlineFragment:
			if included(s.Directives, vars) {
				collectFields(s.SelectionSet, vars, fn)
			}
		case *ast.FragmentSpread:
			if included(s.Directives, vars) && s.Definition != nil {
				collectFields(s.Definition.SelectionSet, vars, fn)
			}
		}
	}
}

func included(directives ast.DirectiveList, vars map[string]interface{}) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func extend(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

// page применяет limit/offset; limit <= 0 означает "без ограничения"
func page[T any](items []T, args map[string]interface{}) []T {
	offset := intArg(args["offset"])
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit := intArg(args["limit"]); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func intArg(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
