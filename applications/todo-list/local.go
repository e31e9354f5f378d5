package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HTTPリクエストをAPIGatewayProxyRequestに変換
func httpToAPIGatewayEvent(r *http.Request) (events.APIGatewayProxyRequest, error) {
	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	queryParams := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}

	// リクエストボディを読み取り
	var body string
	if r.Body != nil {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return events.APIGatewayProxyRequest{}, fmt.Errorf("failed to read body: %w", err)
		}
		body = string(bodyBytes)
	}

	event := events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		QueryStringParameters: queryParams,
		Headers:               headers,
		Body:                  body,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
		},
	}

	// API Gatewayと同じく、パスパラメーターがなければnilのまま
	if id := chi.URLParam(r, "id"); id != "" {
		event.PathParameters = map[string]string{"id": id}
	}

	return event, nil
}

// lambdaFunc はlambda.Startに渡すハンドラーの型
type lambdaFunc func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// lambdaHTTPHandler はLambdaハンドラーをhttp.HandlerFuncとして公開する
func lambdaHTTPHandler(handle lambdaFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := httpToAPIGatewayEvent(r)
		if err != nil {
			logger.Error("failed to convert request", zap.Error(err))
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		// Lambda handlerを実行
		response, err := handle(r.Context(), event)
		if err != nil {
			logger.Error("handler error", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(response.StatusCode)
		_, _ = w.Write([]byte(response.Body))
	}
}

// newRouter はローカル実行用のルーターを作る
func newRouter(h *Handler) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.Heartbeat("/healthcheck"))

	handler := lambdaHTTPHandler(h.Handle, h.logger)
	router.HandleFunc("/todos", handler)
	router.HandleFunc("/todos/{id}", handler)
	return router
}

// runLocal はWebサーバーとして起動する
func runLocal(cfg Config, h *Handler) error {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.logger.Info("listening", zap.String("addr", server.Addr), zap.String("table", cfg.TableName))
	return server.ListenAndServe()
}
