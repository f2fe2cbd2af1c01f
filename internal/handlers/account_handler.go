package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"usersvc/internal/models"
	"usersvc/internal/services"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	service *services.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// RegisterRoutes registers the account routes. Every route except the
// bootstrap trigger runs auth first.
func (h *AccountHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users")
	users.Get("/init", h.HandleInit)
	users.Get("/", auth, h.HandleList)
	users.Get("/search", auth, h.HandleSearch)
	users.Get("/:id", auth, h.HandleGet)
	users.Post("/", auth, h.HandleCreate)
	users.Put("/:id", auth, h.HandleUpdate)
	users.Delete("/:id", auth, h.HandleDelete)
}

// HandleInit creates the bootstrap administrator if none exists.
func (h *AccountHandler) HandleInit(c *fiber.Ctx) error {
	if err := h.service.BootstrapAdmin(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleList lists accounts, optionally filtered by a name prefix and
// sorted by birthday.
func (h *AccountHandler) HandleList(c *fiber.Ctx) error {
	accounts, err := h.service.ListAccounts(c.UserContext(), services.ListFilter{
		Name:           c.Query("name"),
		SortByBirthday: c.QueryBool("sort", false),
	})
	if err != nil {
		return err
	}
	return c.JSON(accounts)
}

// HandleSearch lists accounts by name fragments and pet ownership.
func (h *AccountHandler) HandleSearch(c *fiber.Ctx) error {
	filter := services.SearchFilter{
		Firstname:      c.Query("firstname"),
		Lastname:       c.Query("lastname"),
		SortByBirthday: c.QueryBool("sort", false),
	}
	if raw := c.Query("hasPet"); raw != "" {
		hasPet, err := strconv.ParseBool(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "hasPet must be true or false")
		}
		filter.HasPet = &hasPet
	}

	accounts, err := h.service.SearchAccounts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(accounts)
}

// HandleGet retrieves a single account by its ID.
func (h *AccountHandler) HandleGet(c *fiber.Ctx) error {
	account, err := h.service.GetAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// HandleCreate creates a new account and points Location at it.
func (h *AccountHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	account, err := h.service.CreateAccount(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Location(strings.TrimSuffix(c.Path(), "/") + "/" + account.ID)
	return c.Status(fiber.StatusCreated).JSON(account)
}

// HandleUpdate replaces the account with the given ID.
func (h *AccountHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if _, err := h.service.UpdateAccount(c.UserContext(), c.Params("id"), req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDelete deletes the account with the given ID.
func (h *AccountHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteAccount(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
