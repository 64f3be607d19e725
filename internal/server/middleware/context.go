package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"polygraph/pkg/store"
)

// App carries the shared clients every request handler needs.
type App struct {
	Snapshots store.SnapshotStore
	Queue     *amqp091.Channel
	S3        *s3.Client
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(
	snapshots store.SnapshotStore,
	queue *amqp091.Channel,
	s3Client *s3.Client,
) echo.MiddlewareFunc {
	app := &App{
		Snapshots: snapshots,
		Queue:     queue,
		S3:        s3Client,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
