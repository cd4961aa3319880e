package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func decode(rw http.ResponseWriter, r *http.Request, into interface{}) error {
	rawJson, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(rawJson) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(rawJson, into)
}

func respond(ctx context.Context, rw http.ResponseWriter, status int, data interface{}) {
	_, span := otel.GetTracerProvider().Tracer("").Start(ctx, "handler.respond")
	span.SetAttributes(attribute.Int("http.status", status))
	defer span.End()

	if status == http.StatusNoContent || data == nil {
		rw.WriteHeader(status)
		return
	}

	rawJson, err := json.Marshal(data)
	if err != nil {
		panic("respond-json-marshal:" + err.Error())
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	rw.Write(rawJson)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func respondErr(ctx context.Context, rw http.ResponseWriter, status int, msg string) {
	respond(ctx, rw, status, ErrorResponse{
		Code:  http.StatusText(status),
		Error: msg,
	})
}
