package api

import (
	"net/http"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Both lookups fail the same way so the response never reveals
	// whether the email exists.
	profile, err := s.db.GetProfileByEmail(c.Request.Context(), req.Email)
	if err != nil || !profile.IsAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := s.db.GetAdminPasswordHash(c.Request.Context(), req.Email)
	if err != nil || auth.CheckPassword(hash, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.auth.Generate(profile.Id, auth.RoleAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	zap.L().Info("Admin login", zap.String("profile_id", profile.Id))

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type adminAdjustRequest struct {
	ProfileId   string `json:"profile_id" binding:"required"`
	Direction   string `json:"direction" binding:"required,oneof=credit debit"`
	Amount      string `json:"amount" binding:"required,decimalgt0"`
	Description string `json:"description" binding:"required"`
}

// handleAdminAdjust records a manual credit or debit against a
// portfolio. Debits fail on insufficient spendable balance like any
// other ledger entry.
func (s *Server) handleAdminAdjust(c *gin.Context) {
	var req adminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	txType := models.TxTypeAdminCredit
	if req.Direction == "debit" {
		txType = models.TxTypeAdminDebit
		amount = amount.Neg()
	}

	transaction, err := s.db.RecordTransaction(c.Request.Context(), database.RecordTransactionParams{
		ProfileId:   req.ProfileId,
		Type:        txType,
		Amount:      amount,
		ReferenceId: uuid.New().String(),
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if claims := claimsFrom(c); claims != nil {
		zap.L().Info("Admin adjustment recorded",
			zap.String("admin_id", claims.ProfileId),
			zap.String("transaction_id", transaction.Id),
			zap.String("profile_id", req.ProfileId),
			zap.String("amount", amount.String()))
	}

	c.JSON(http.StatusCreated, transaction)
}

type planRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	ApyRate      string `json:"apy_rate" binding:"required,decimalgte0"`
	DurationDays int    `json:"duration_days" binding:"required,gt=0"`
	MinAmount    string `json:"min_amount" binding:"required,decimalgt0"`
	MaxAmount    string `json:"max_amount"`
	Active       *bool  `json:"active"`
}

func (r *planRequest) toModel() (*models.InvestmentPlan, error) {
	apyRate, err := decimal.NewFromString(r.ApyRate)
	if err != nil {
		return nil, err
	}
	minAmount, err := decimal.NewFromString(r.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount := decimal.Zero
	if r.MaxAmount != "" {
		if maxAmount, err = decimal.NewFromString(r.MaxAmount); err != nil {
			return nil, err
		}
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &models.InvestmentPlan{
		Name:         r.Name,
		Description:  r.Description,
		ApyRate:      apyRate,
		DurationDays: r.DurationDays,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		Active:       active,
	}, nil
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan amounts"})
		return
	}

	created, err := s.db.CreatePlan(c.Request.Context(), plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan amounts"})
		return
	}
	plan.Id = c.Param("id")

	updated, err := s.db.UpdatePlan(c.Request.Context(), plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleListAllPlans(c *gin.Context) {
	plans, err := s.db.GetAllPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) handleMatureInvestment(c *gin.Context) {
	investment, err := s.invest.Mature(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investment)
}

func (s *Server) handleCancelInvestment(c *gin.Context) {
	investment, err := s.invest.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investment)
}

func (s *Server) handleCompleteDeposit(c *gin.Context) {
	transaction, err := s.deposits.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

type failDepositRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) handleFailDeposit(c *gin.Context) {
	var req failDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := s.deposits.Fail(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (s *Server) handleListDepositsByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", models.DepositStatusPending)
	result, err := s.deposits.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": result})
}
