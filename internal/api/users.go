package api

import (
	"net/http"
	"strconv"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/deposits"
	"invest-ledger-go/internal/invest"
	"invest-ledger-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := s.db.CreateProfile(c.Request.Context(), req.Email, req.FullName, false, passwordHash)
	if err != nil {
		respondError(c, err)
		return
	}

	zap.L().Info("Profile created",
		zap.String("profile_id", profile.Id),
		zap.String("email", profile.Email))

	c.JSON(http.StatusCreated, gin.H{
		"id":        profile.Id,
		"email":     profile.Email,
		"full_name": profile.FullName,
	})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	summary, err := s.read.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleTransactionHistory(c *gin.Context) {
	limit := parseQueryInt(c, "limit", 50)
	offset := parseQueryInt(c, "offset", 0)

	history, err := s.db.GetTransactionHistory(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

func (s *Server) handleListInvestments(c *gin.Context) {
	investments, err := s.db.GetInvestmentsByProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": investments})
}

func (s *Server) handleListDeposits(c *gin.Context) {
	result, err := s.deposits.ListByProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": result})
}

func (s *Server) handleListPlans(c *gin.Context) {
	plans, err := s.db.GetActivePlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type openInvestmentRequest struct {
	ProfileId string `json:"profile_id" binding:"required"`
	PlanId    string `json:"plan_id" binding:"required"`
	Amount    string `json:"amount" binding:"required,decimalgt0"`
}

func (s *Server) handleOpenInvestment(c *gin.Context) {
	var req openInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	investment, err := s.invest.Open(c.Request.Context(), req.ProfileId, req.PlanId, amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, investmentResponse(investment))
}

// investmentResponse augments the stored record with the derived
// expected profit so clients need not reimplement the formula.
func investmentResponse(investment *models.Investment) gin.H {
	return gin.H{
		"investment":      investment,
		"expected_profit": invest.ExpectedProfit(investment.Amount, investment.ApyRate, investment.DurationDays),
	}
}

type detectDepositRequest struct {
	ProfileId    string `json:"profile_id" binding:"required"`
	Currency     string `json:"currency" binding:"required"`
	Network      string `json:"network" binding:"required"`
	Address      string `json:"address"`
	AmountCrypto string `json:"amount_crypto" binding:"required,decimalgt0"`
	ExchangeRate string `json:"exchange_rate" binding:"required,decimalgt0"`
}

func (s *Server) handleDetectDeposit(c *gin.Context) {
	var req detectDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amountCrypto, err := decimal.NewFromString(req.AmountCrypto)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_crypto"})
		return
	}
	exchangeRate, err := decimal.NewFromString(req.ExchangeRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exchange_rate"})
		return
	}

	deposit, err := s.deposits.Detect(c.Request.Context(), deposits.DetectParams{
		ProfileId:    req.ProfileId,
		Currency:     req.Currency,
		Network:      req.Network,
		Address:      req.Address,
		AmountCrypto: amountCrypto,
		ExchangeRate: exchangeRate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deposit)
}

type advanceConfirmationsRequest struct {
	Confirmations int `json:"confirmations" binding:"min=0"`
}

func (s *Server) handleAdvanceConfirmations(c *gin.Context) {
	var req advanceConfirmationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := s.deposits.AdvanceConfirmations(c.Request.Context(), c.Param("id"), req.Confirmations)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func parseQueryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			return value
		}
	}
	return defaultValue
}
