//go:build release
// +build release

package main

import (
	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/core/config"
)

// initializeGin sets up Gin in release mode for production builds
func initializeGin(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Configure trusted proxies from config
	if cfg.TrustedProxies != nil && len(cfg.TrustedProxies.AnalysisServer) > 0 {
		router.SetTrustedProxies(cfg.TrustedProxies.AnalysisServer)
	} else {
		// With no proxies configured, trust none
		router.SetTrustedProxies(nil)
	}

	return router
}
