package http

import (
	"context"
	"net/http"
	"strconv"

	applog "ops/internal/log"
)

// resource binds one admin entity set to its ledger operations.
type resource[T any] struct {
	entity string
	list   func(context.Context) ([]T, error)
	get    func(context.Context, int64) (T, error)
	create func(context.Context, T) (T, error)
	update func(context.Context, T) (T, error)
	remove func(context.Context, int64) error
	withID func(T, int64) T
	idOf   func(T) int64
	// views decorates list results with their display strings.
	views func(context.Context, []T) ([]any, error)
}

// mountResource registers list, create, get, update and delete under base.
func mountResource[T any](s *Server, mux *http.ServeMux, base string, res resource[T]) {
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		items, err := res.list(r.Context())
		if err != nil {
			s.writeLedgerError(w, r, applog.OpList, res.entity, err)
			return
		}
		views, err := res.views(r.Context(), items)
		if err != nil {
			s.writeLedgerError(w, r, applog.OpList, res.entity, err)
			return
		}
		NewJSONResponse().Body(views).Write(w)
	})

	mux.HandleFunc("POST "+base, func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := DecodeJSON(r, &in); err != nil {
			DecodeErrorResponse(err).Write(w)
			return
		}
		created, err := res.create(r.Context(), res.withID(in, 0))
		if err != nil {
			s.writeLedgerError(w, r, applog.OpCreate, res.entity, err)
			return
		}
		id := res.idOf(created)
		s.events.LogLedgerWrite(r.Context(), applog.OpCreate, res.entity, id)
		NewJSONResponse().
			Status(http.StatusCreated).
			Header("Location", base+"/"+strconv.FormatInt(id, 10)).
			Body(created).
			Write(w)
	})

	mux.HandleFunc("GET "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		item, err := res.get(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, r, applog.OpRead, res.entity, err)
			return
		}
		NewJSONResponse().Body(item).Write(w)
	})

	mux.HandleFunc("PUT "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		var in T
		if err := DecodeJSON(r, &in); err != nil {
			DecodeErrorResponse(err).Write(w)
			return
		}
		updated, err := res.update(r.Context(), res.withID(in, id))
		if err != nil {
			s.writeLedgerError(w, r, applog.OpUpdate, res.entity, err)
			return
		}
		s.events.LogLedgerWrite(r.Context(), applog.OpUpdate, res.entity, id)
		NewJSONResponse().Body(updated).Write(w)
	})

	mux.HandleFunc("DELETE "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		if err := res.remove(r.Context(), id); err != nil {
			s.writeLedgerError(w, r, applog.OpDelete, res.entity, err)
			return
		}
		s.events.LogLedgerWrite(r.Context(), applog.OpDelete, res.entity, id)
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	})
}

// writeLedgerError answers a failed ledger call. Only unexpected failures are
// logged as errors; rejected input is a client problem.
func errorType(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return applog.ErrorTypeValidation
	case http.StatusConflict:
		return applog.ErrorTypeConflict
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	default:
		return applog.ErrorTypeInternal
	}
}

func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, op, entity string, err error) {
	status := ErrorStatus(err)
	ctx := r.Context()
	if status == http.StatusInternalServerError {
		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery)
		fields[applog.FieldEntity] = entity
		s.events.LogError(ctx, "Ledger operation failed", err, applog.ErrorTypeDatabase, op, fields)
	} else {
		applog.FromContext(ctx).DebugContext(ctx, "Ledger request rejected",
			applog.FieldOperation, op,
			applog.FieldEntity, entity,
			applog.FieldStatusCode, status,
			applog.FieldErrorType, errorType(status),
			applog.FieldError, err)
	}
	LedgerErrorResponse(err).Write(w)
}
