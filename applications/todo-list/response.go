package main

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Message はメッセージだけを返すレスポンスボディ
type Message struct {
	Message string `json:"message"`
}

var (
	invalidRequest = Message{Message: "Invalid Request"}
	serverError    = Message{Message: "Server Error"}
	deletedMessage = Message{Message: "Item deleted successfully"}
)

// JSONにできなかった場合に返すボディ
const serverErrorBody = `{"message":"Server Error"}`

func responseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// buildResponse はステータスコードとボディからAPI Gatewayのレスポンスを作る
func buildResponse(statusCode int, body interface{}) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    responseHeaders(),
			Body:       serverErrorBody,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    responseHeaders(),
		Body:       string(b),
	}
}
