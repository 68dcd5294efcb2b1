package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

type Lister[T any] interface {
	List(ctx context.Context, q query.Query) ([]T, int, error)
}

type Getter[T any] interface {
	Get(ctx context.Context, id int64) (T, error)
}

type Creator[T any] interface {
	Create(ctx context.Context, rec *T) error
}

type Updater[T any] interface {
	Update(ctx context.Context, id int64, patch map[string]any) (T, error)
}

type Deleter interface {
	Delete(ctx context.Context, id int64) error
}

// Scope returns fixed filter conditions for a list request, such as the
// parent tour of nested reviews.
type Scope func(c *gin.Context) ([]query.Condition, error)

// Prepare adjusts a decoded record before it is created.
type Prepare[T any] func(c *gin.Context, rec *T) error

func GetAll[T any](svc Lister[T], scope Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		var base []query.Condition
		if scope != nil {
			conds, err := scope(c)
			if err != nil {
				fail(c, err)
				return
			}
			base = conds
		}

		q := query.Build(c.Request.URL.Query(), base...)
		items, total, err := svc.List(c.Request.Context(), q)
		if err != nil {
			fail(c, err)
			return
		}
		docs, err := query.ApplyAll(q.Projection, items)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "success",
			"results":      len(docs),
			"resultsTotal": total,
			"data":         gin.H{"data": docs},
		})
	}
}

func GetOne[T any](svc Getter[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		rec, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		doc, err := query.Build(c.Request.URL.Query()).Projection.Apply(rec)
		if err != nil {
			fail(c, err)
			return
		}
		respondDoc(c, http.StatusOK, doc)
	}
}

func CreateOne[T any](svc Creator[T], prepare Prepare[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec T
		if err := bindJSON(c, &rec); err != nil {
			fail(c, err)
			return
		}
		if prepare != nil {
			if err := prepare(c, &rec); err != nil {
				fail(c, err)
				return
			}
		}
		if err := svc.Create(c.Request.Context(), &rec); err != nil {
			fail(c, err)
			return
		}
		doc, err := defaultProjection.Apply(rec)
		if err != nil {
			fail(c, err)
			return
		}
		respondDoc(c, http.StatusCreated, doc)
	}
}

func UpdateOne[T any](svc Updater[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		patch, err := bindPatch(c)
		if err != nil {
			fail(c, err)
			return
		}
		rec, err := svc.Update(c.Request.Context(), id, patch)
		if err != nil {
			fail(c, err)
			return
		}
		doc, err := defaultProjection.Apply(rec)
		if err != nil {
			fail(c, err)
			return
		}
		respondDoc(c, http.StatusOK, doc)
	}
}

func DeleteOne(svc Deleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
