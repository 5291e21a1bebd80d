//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/qazinvest/faq-assist/internal/bootstrap"
	"github.com/qazinvest/faq-assist/internal/domain/qa"
	"github.com/qazinvest/faq-assist/internal/infra/config"
	"github.com/qazinvest/faq-assist/internal/infra/llm/chatgpt"
	httpiface "github.com/qazinvest/faq-assist/internal/interface/http"
	"github.com/qazinvest/faq-assist/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideQAConfig,
		provideChatGPTClient,
		provideRepository,
		provideResultCache,
		provideVideoStore,
		provideBackfiller,
		provideBot,
		qa.NewService,
		wire.Bind(new(qa.ChatClient), new(*chatgpt.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
