package controller

import (
	"errors"
	"log"

	"github.com/benbeisheim/movecheck-backend/internal/middleware"
	"github.com/benbeisheim/movecheck-backend/internal/model"
	"github.com/benbeisheim/movecheck-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Move string `json:"move"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) ListGames(c *fiber.Ctx) error {
	ids, err := gc.gameService.ListGames()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"games": ids})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	state, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(state)
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	move, err := model.ParseMoveRequest(req.From, req.To, req.Move)
	if err != nil {
		return errorResponse(c, err)
	}

	gameID := c.Params("gameId")
	state, err := gc.gameService.HandleMove(gameID, move)
	if err != nil {
		return errorResponse(c, err)
	}
	log.Printf("game %s: client %s moved %s", gameID, middleware.ClientID(c), move)
	return c.JSON(state)
}

// CheckMove answers whether ?from=&to= (or ?move=) is legal without moving.
func (gc *GameController) CheckMove(c *fiber.Ctx) error {
	move, err := model.ParseMoveRequest(c.Query("from"), c.Query("to"), c.Query("move"))
	if err != nil {
		return errorResponse(c, err)
	}

	legal, err := gc.gameService.CheckMove(c.Params("gameId"), move)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"from":  move.From.String(),
		"to":    move.To.String(),
		"legal": legal,
	})
}

func (gc *GameController) DeleteGame(c *fiber.Ctx) error {
	if err := gc.gameService.DeleteGame(c.Params("gameId")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, model.ErrMalformedMove):
		status = fiber.StatusBadRequest
	case errors.Is(err, model.ErrIllegalMove):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrGameExists):
		status = fiber.StatusConflict
	default:
		log.Printf("%s %s (client %s): %v", c.Method(), c.Path(), middleware.ClientID(c), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
