// Package handler is the API Gateway boundary for ticket submission. It
// decodes the request, runs one routing cycle, and maps usecase error
// codes onto HTTP statuses.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"ticket-agent/internal/usecase"
)

// TicketUseCase is the single operation the handler drives.
type TicketUseCase interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

type submitRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId"`
	// Attachment carries the optional PDF as standard base64.
	Attachment string `json:"attachment,omitempty"`
}

type submitResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"threadId"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type Handler struct {
	tickets TicketUseCase
}

func NewHandler(tickets TicketUseCase) (*Handler, error) {
	if tickets == nil {
		return nil, errors.New("handler: ticket use case must not be nil")
	}
	return &Handler{tickets: tickets}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return errorResponse(http.StatusMethodNotAllowed, "INVALID_INPUT", "method_not_allowed"), nil
	}

	var in submitRequest
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return errorResponse(http.StatusBadRequest, "INVALID_INPUT", "malformed_json"), nil
	}

	var attachment []byte
	if in.Attachment != "" {
		decoded, err := base64.StdEncoding.DecodeString(in.Attachment)
		if err != nil {
			return errorResponse(http.StatusBadRequest, "INVALID_INPUT", "malformed_attachment"), nil
		}
		attachment = decoded
	}

	out, err := h.tickets.Submit(ctx, usecase.SubmitInput{
		Message:    in.Message,
		ThreadID:   in.ThreadID,
		Attachment: attachment,
	})
	if err != nil {
		return errorResponseFor(err), nil
	}

	return jsonResponse(http.StatusOK, submitResponse{
		Response: out.Response,
		ThreadID: out.ThreadID,
	}), nil
}

func errorResponseFor(err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		status := http.StatusInternalServerError
		if ucErr.Code == usecase.ErrorInvalidInput {
			status = http.StatusBadRequest
		}
		return errorResponse(status, string(ucErr.Code), ucErr.Reason)
	}
	return errorResponse(http.StatusInternalServerError, string(usecase.ErrorInternal), "unexpected_error")
}

func errorResponse(status int, code, reason string) events.APIGatewayProxyResponse {
	return jsonResponse(status, errorBody{Error: errorDetail{Code: code, Reason: reason}})
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       `{"error":{"code":"INTERNAL_ERROR","reason":"encode_response"}}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(raw),
	}
}
