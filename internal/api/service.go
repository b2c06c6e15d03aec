/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/deposits"
	"invest-ledger-go/internal/invest"
	"invest-ledger-go/internal/portfolio"

	"github.com/gin-gonic/gin"
)

// Server exposes the ledger over HTTP. All writes route through the
// underlying services; handlers never touch SQL directly.
type Server struct {
	db       *database.Service
	invest   *invest.Service
	deposits *deposits.Service
	read     *portfolio.Service
	auth     *auth.Manager
}

func NewServer(db *database.Service, investService *invest.Service, depositService *deposits.Service, readService *portfolio.Service, authManager *auth.Manager) *Server {
	return &Server{
		db:       db,
		invest:   investService,
		deposits: depositService,
		read:     readService,
		auth:     authManager,
	}
}

func (s *Server) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetActivePlans(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/users", s.handleSignup)
		apiGroup.GET("/users/:id/portfolio", s.handlePortfolio)
		apiGroup.GET("/users/:id/transactions", s.handleTransactionHistory)
		apiGroup.GET("/users/:id/investments", s.handleListInvestments)
		apiGroup.GET("/users/:id/deposits", s.handleListDeposits)
		apiGroup.GET("/plans", s.handleListPlans)
		apiGroup.POST("/investments", s.handleOpenInvestment)
		apiGroup.POST("/admin/login", s.handleAdminLogin)
	}

	adminGroup := apiGroup.Group("", s.requireAdmin())
	{
		adminGroup.POST("/admin/adjust", s.handleAdminAdjust)
		adminGroup.POST("/admin/plans", s.handleCreatePlan)
		adminGroup.PATCH("/admin/plans/:id", s.handleUpdatePlan)
		adminGroup.GET("/admin/plans", s.handleListAllPlans)
		adminGroup.POST("/admin/investments/:id/mature", s.handleMatureInvestment)
		adminGroup.POST("/admin/investments/:id/cancel", s.handleCancelInvestment)
		adminGroup.POST("/deposits", s.handleDetectDeposit)
		adminGroup.POST("/deposits/:id/confirmations", s.handleAdvanceConfirmations)
		adminGroup.POST("/admin/deposits/:id/complete", s.handleCompleteDeposit)
		adminGroup.POST("/admin/deposits/:id/fail", s.handleFailDeposit)
		adminGroup.GET("/admin/deposits", s.handleListDepositsByStatus)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(503, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}
