package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Handler はAPI Gatewayのリクエストをストアの操作に振り分ける
type Handler struct {
	store  ItemStore
	logger *zap.Logger
}

func NewHandler(store ItemStore, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Handle はLambdaのエントリーポイント。
// エラーはすべて500のレスポンスに変換し、Lambdaにはエラーを返さない
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (response events.APIGatewayProxyResponse, err error) {
	logger := h.logger.With(
		zap.String("request_id", request.RequestContext.RequestID),
		zap.String("method", request.HTTPMethod),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic occurred", zap.Any("panic", r))
			response = buildResponse(http.StatusInternalServerError, serverError)
			err = nil
		}
	}()

	response, dispatchErr := h.dispatch(ctx, request)
	if dispatchErr != nil {
		logger.Error("request failed", zap.Error(dispatchErr))
		return buildResponse(http.StatusInternalServerError, serverError), nil
	}

	logger.Debug("request handled", zap.Int("status", response.StatusCode))
	return response, nil
}

func (h *Handler) dispatch(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	data, err := parseBody(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	id := request.PathParameters["id"]

	switch request.HTTPMethod {
	case http.MethodGet:
		if id != "" {
			item, err := h.store.Get(ctx, id)
			if err != nil {
				return events.APIGatewayProxyResponse{}, err
			}
			return buildResponse(http.StatusOK, item), nil
		}

		items, err := h.store.List(ctx)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return buildResponse(http.StatusOK, items), nil

	case http.MethodPost:
		// ボディがJSONのnullだった場合のみここに入る
		if data == nil {
			return buildResponse(http.StatusBadRequest, invalidRequest), nil
		}

		item, err := h.store.Create(ctx, data)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return buildResponse(http.StatusCreated, item), nil

	case http.MethodPut:
		if id == "" || data == nil {
			return buildResponse(http.StatusBadRequest, invalidRequest), nil
		}

		item, err := h.store.Update(ctx, id, data)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return buildResponse(http.StatusOK, item), nil

	case http.MethodDelete:
		if id == "" {
			return buildResponse(http.StatusBadRequest, invalidRequest), nil
		}

		message, err := h.store.Delete(ctx, id)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return buildResponse(http.StatusOK, message), nil

	default:
		return buildResponse(http.StatusBadRequest, invalidRequest), nil
	}
}

// parseBody はリクエストボディをItemにする。空のボディは空のItem
func parseBody(request events.APIGatewayProxyRequest) (Item, error) {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = string(decoded)
	}

	if body == "" {
		return Item{}, nil
	}

	var data Item
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}

	return data, nil
}
