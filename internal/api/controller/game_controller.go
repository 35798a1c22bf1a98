package controller

import (
	"net/http"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
)

// GameController serves scores, archived games and statistics.
type GameController struct {
	gameService service.GameService
}

func NewGameController(gameService service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// Scores handles GET /api/sessions/:id/scores.
func (gc *GameController) Scores(c *gin.Context) {
	scores, err := gc.gameService.Scores(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponse(c, scores)
}

// Games handles GET /api/sessions/:id/games.
func (gc *GameController) Games(c *gin.Context) {
	var query models.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	games, err := gc.gameService.Games(c.Request.Context(), c.Param("id"), query.Limit)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponseList(c, games)
}

// Game handles GET /api/games/:id, returning the snapshot history for replay.
func (gc *GameController) Game(c *gin.Context) {
	record, err := gc.gameService.Game(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.SuccessResponse(c, record)
}

// Stats handles GET /api/stats.
func (gc *GameController) Stats(c *gin.Context) {
	response.SuccessResponse(c, gc.gameService.Stats())
}
