package controller

import (
	"net/http"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
)

// AccountController handles account-related HTTP requests.
type AccountController struct {
	accountService service.AccountService
}

// NewAccountController creates a new AccountController.
func NewAccountController(accountService service.AccountService) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// Register handles the account registration endpoint.
func (ac *AccountController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := ac.accountService.Register(c.Request.Context(), &req); err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponse(c, gin.H{"message": "Account created successfully"})
}

// Login handles the login endpoint.
func (ac *AccountController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := ac.accountService.Login(c.Request.Context(), &req)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponse(c, res)
}

// GuestLogin returns a generated player ID and its token.
func (ac *AccountController) GuestLogin(c *gin.Context) {
	res, err := ac.accountService.GuestLogin(c.Request.Context())
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponse(c, res)
}
