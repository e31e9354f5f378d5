// API GatewayのREST APIからToDoリストのCRUDを受け付けるLambda関数

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DynamoDBクライアント
var dynamodbClient *dynamodb.Client

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func main() {
	// ローカル実行時は.envを読み込む
	if os.Getenv("ENV") == envLocal {
		if err := loadDotEnv(".env"); err != nil {
			log.Fatalf("%v", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// AWS設定をロード
	awsCfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	// DynamoDBクライアントを初期化
	dynamodbClient = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	handler := NewHandler(NewTableStore(dynamodbClient, cfg.TableName), logger)

	if cfg.IsLocal() {
		// Webサーバーとして起動
		if err := runLocal(cfg, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
		return
	}

	lambda.Start(handler.Handle)
}
