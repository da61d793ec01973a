package utils

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RequestIDKey is the echo context key under which the request-id middleware
// stores the correlation id picked up by Respond.
const RequestIDKey = "request_id"

// Envelope is the uniform response body returned by every endpoint,
// success or failure.
type Envelope struct {
	Status    string `json:"status"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Meta      any    `json:"meta"`
	Errors    any    `json:"errors"`
	Stack     any    `json:"stack,omitempty"`
	Notify    bool   `json:"notify"`
	RequestID string `json:"requestId"`
}

// Responder builds an Envelope fluently and writes it as JSON.
type Responder struct {
	c       echo.Context
	payload Envelope
}

// Respond starts a success envelope for the request. The request id is taken
// from the request-id middleware when present, otherwise generated here so
// the field is never empty.
func Respond(c echo.Context) *Responder {
	rid, _ := c.Get(RequestIDKey).(string)
	if rid == "" {
		rid = uuid.NewString()
	}
	return &Responder{c: c, payload: Envelope{
		Status:    StatusSuccess,
		Code:      http.StatusOK,
		Message:   "Operation successful",
		RequestID: rid,
	}}
}

func (r *Responder) Status(v string) *Responder  { r.payload.Status = v; return r }
func (r *Responder) Code(v int) *Responder       { r.payload.Code = v; return r }
func (r *Responder) Message(v string) *Responder { r.payload.Message = v; return r }
func (r *Responder) Data(v any) *Responder       { r.payload.Data = v; return r }
func (r *Responder) Meta(v any) *Responder       { r.payload.Meta = v; return r }
func (r *Responder) Errors(v any) *Responder     { r.payload.Errors = v; return r }
func (r *Responder) Stack(v any) *Responder      { r.payload.Stack = v; return r }
func (r *Responder) Notify() *Responder          { r.payload.Notify = true; return r }

// Send writes the envelope with its code as the HTTP status.
func (r *Responder) Send() error {
	return r.c.JSON(r.payload.Code, r.payload)
}
