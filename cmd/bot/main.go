package main

import (
	"context"

	"github.com/seerrbot/OverseerrBot/internal/app/bot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	app, err := bot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("failed to init app: %v", err)
	}
	app.Run()
}
